// Package notification отправляет покупателям push-уведомления.
package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storeadmin/internal/metrics"
	"github.com/mmeshcher/storeadmin/internal/model"
	"github.com/mmeshcher/storeadmin/internal/push"
)

const (
	// StatusTitle задаёт заголовок уведомления о смене статуса заказа.
	StatusTitle = "Your Order Status"

	// MaxDeliveryAttempts ограничивает число попыток доставки одного сообщения.
	MaxDeliveryAttempts = 5

	redeliveryBatch = 100
)

// StatusBody формирует текст уведомления о новом статусе заказа.
func StatusBody(status model.OrderStatus) string {
	return "Your order is now " + string(status)
}

// TokenStore возвращает push-токен пользователя. Пустая строка означает, что токена нет.
type TokenStore interface {
	GetUserPushToken(ctx context.Context, userID string) (string, error)
}

// Sender доставляет сообщение во внешний сервис.
type Sender interface {
	Send(ctx context.Context, msg model.PushMessage) error
}

// Outbox хранит недоставленные сообщения для повторной отправки.
type Outbox interface {
	EnqueuePush(ctx context.Context, userID string, msg model.PushMessage, lastErr string) error
	FetchPendingPushes(ctx context.Context, maxAttempts, limit int) ([]model.PendingPush, error)
	MarkPushSent(ctx context.Context, id int64) error
	MarkPushFailed(ctx context.Context, id int64, lastErr string) error
}

// Notification описывает содержимое уведомления.
type Notification struct {
	Title string
	Body  string
	Data  map[string]any
}

// Dispatcher находит токен пользователя и отправляет ему уведомление.
type Dispatcher struct {
	tokens  TokenStore
	sender  Sender
	outbox  Outbox
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDispatcher создаёт диспетчер. outbox и m могут быть nil.
func NewDispatcher(tokens TokenStore, sender Sender, outbox Outbox, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		tokens:  tokens,
		sender:  sender,
		outbox:  outbox,
		metrics: m,
		logger:  logger,
	}
}

// Dispatch отправляет уведомление пользователю одним запросом.
//
// Отсутствие токена не считается ошибкой. Ошибка поиска пользователя возвращается вызывающему.
// Ошибка доставки только логируется, а сообщение ставится в очередь повторной отправки.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, n Notification) error {
	token, err := d.tokens.GetUserPushToken(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve push token: %w", err)
	}

	if token == "" {
		d.metrics.ObservePushDelivery("skipped")
		return nil
	}

	msg := model.PushMessage{
		To:    token,
		Sound: push.DefaultSound,
		Title: n.Title,
		Body:  n.Body,
		Data:  n.Data,
	}
	if msg.Data == nil {
		msg.Data = map[string]any{}
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		d.metrics.ObservePushDelivery("failed")
		d.logger.Warn("push delivery failed", zap.Error(err), zap.String("userID", userID))
		d.enqueue(ctx, userID, msg, err)
		return nil
	}

	d.metrics.ObservePushDelivery("sent")
	return nil
}

func (d *Dispatcher) enqueue(ctx context.Context, userID string, msg model.PushMessage, sendErr error) {
	if d.outbox == nil {
		return
	}
	// Запрос администратора мог быть отменён во время отправки, сообщение всё равно ставится в очередь.
	if err := d.outbox.EnqueuePush(context.WithoutCancel(ctx), userID, msg, sendErr.Error()); err != nil {
		d.logger.Error("enqueue push failed", zap.Error(err), zap.String("userID", userID))
	}
}

// StartRedelivery запускает фоновую повторную отправку недоставленных сообщений.
func (d *Dispatcher) StartRedelivery(ctx context.Context, interval time.Duration) {
	if d.outbox == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.redeliverBatch(ctx)
			}
		}
	}()
}

func (d *Dispatcher) redeliverBatch(ctx context.Context) {
	pending, err := d.outbox.FetchPendingPushes(ctx, MaxDeliveryAttempts, redeliveryBatch)
	if err != nil {
		d.logger.Error("fetch pending pushes", zap.Error(err))
		return
	}

	for _, p := range pending {
		if ctx.Err() != nil {
			return
		}

		if err := d.sender.Send(ctx, p.Message); err != nil {
			d.metrics.ObservePushDelivery("redelivery_failed")
			if markErr := d.outbox.MarkPushFailed(ctx, p.ID, err.Error()); markErr != nil {
				d.logger.Error("mark push failed", zap.Error(markErr), zap.Int64("id", p.ID))
			}
			if p.Attempts+1 >= MaxDeliveryAttempts {
				d.logger.Warn("push dropped after max attempts", zap.Int64("id", p.ID), zap.String("userID", p.UserID))
			}
			continue
		}

		d.metrics.ObservePushDelivery("redelivered")
		if err := d.outbox.MarkPushSent(ctx, p.ID); err != nil {
			d.logger.Error("mark push sent", zap.Error(err), zap.Int64("id", p.ID))
		}
	}
}
