package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storeadmin/internal/model"
)

func TestSend_OK(t *testing.T) {
	var got model.PushMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "gzip, deflate", r.Header.Get("Accept-Encoding"))

		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"status":"ok"}}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.Send(ctx, model.PushMessage{
		To:    "tok_abc",
		Sound: DefaultSound,
		Title: "Your Order Status",
		Body:  "Your order is now Shipped",
		Data:  map[string]any{"orderId": 42},
	})
	require.NoError(t, err)

	assert.Equal(t, "tok_abc", got.To)
	assert.Equal(t, "default", got.Sound)
	assert.Equal(t, "Your Order Status", got.Title)
	assert.Equal(t, "Your order is now Shipped", got.Body)
	assert.Equal(t, float64(42), got.Data["orderId"])
}

func TestSend_ClientErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 0)

	err := client.Send(context.Background(), model.PushMessage{To: "tok"})
	require.Error(t, err)
}

func TestSend_ServerErrorSingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 0)

	err := client.Send(context.Background(), model.PushMessage{To: "tok"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSend_RetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 2)

	err := client.Send(context.Background(), model.PushMessage{To: "tok"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSend_NotConfigured(t *testing.T) {
	var client *Client
	assert.Error(t, client.Send(context.Background(), model.PushMessage{}))
}
