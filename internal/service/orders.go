package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/storeadmin/internal/model"
	"github.com/mmeshcher/storeadmin/internal/notification"
)

// UpdateOrderStatus сохраняет новый статус заказа и уведомляет его владельца.
//
// Статус не проверяется: допустимость значения проверяется на границе HTTP API.
// Ошибка сохранения возвращается без повторов и без отправки уведомления.
// После успешного сохранения кэш списка заказов сбрасывается в любом случае,
// а ошибка уведомления не откатывает сохранённый статус.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, expectedVersion *int64, actor string) error {
	change, err := s.repo.UpdateOrderStatus(ctx, orderID, status, expectedVersion, actor)
	if err != nil {
		s.metrics.ObserveStatusUpdate(string(status), "error")
		return err
	}
	s.metrics.ObserveStatusUpdate(string(status), "ok")

	s.invalidateOrders(ctx)

	// Статус уже сохранён: событие и уведомление не зависят от отмены запроса.
	ctx = context.WithoutCancel(ctx)

	if s.events != nil {
		if err := s.events.PublishStatusChanged(ctx, *change); err != nil {
			s.logger.Warn("publish status change failed", zap.Error(err), zap.Int64("orderID", orderID))
		}
	}

	err = s.notifier.Dispatch(ctx, change.UserID, notification.Notification{
		Title: notification.StatusTitle,
		Body:  notification.StatusBody(status),
		Data: map[string]any{
			"orderId": orderID,
			"status":  string(status),
		},
	})
	if err != nil {
		return fmt.Errorf("notify owner of order %d: %w", orderID, err)
	}

	return nil
}

// GetOrdersWithItems возвращает список заказов с позициями, используя кэш, если он подключён.
func (s *Service) GetOrdersWithItems(ctx context.Context) ([]model.OrderWithItems, error) {
	if s.cache == nil {
		return s.repo.GetOrdersWithItems(ctx)
	}

	cached, gen, ok := s.cache.Get()
	if ok {
		return cached, nil
	}

	orders, err := s.repo.GetOrdersWithItems(ctx)
	if err != nil {
		return nil, err
	}

	// Снимок, прочитанный до смены статуса, в кэш не попадает.
	s.cache.SetIfGeneration(gen, orders)
	return orders, nil
}
