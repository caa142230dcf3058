// Package push предоставляет клиент сервиса доставки push-уведомлений.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mmeshcher/storeadmin/internal/model"
)

// DefaultSound задаёт значение поля sound, при котором устройство воспроизводит стандартный звук.
const DefaultSound = "default"

// Client инкапсулирует HTTP-взаимодействие с сервисом доставки push-уведомлений.
type Client struct {
	endpoint   string
	httpClient *retryablehttp.Client
}

// NewClient создаёт клиент для указанного адреса. retryMax задаёт число повторов
// при сетевых ошибках и ответах 5xx; при нулевом значении выполняется ровно один запрос.
func NewClient(endpoint string, retryMax int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: rc,
	}
}

// Send отправляет одно сообщение. Ответы вне диапазона 2xx считаются ошибкой доставки.
func (c *Client) Send(ctx context.Context, msg model.PushMessage) error {
	if c == nil || c.endpoint == "" {
		return fmt.Errorf("push client not configured")
	}

	endpoint := c.endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
