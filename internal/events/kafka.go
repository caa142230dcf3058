// Package events публикует события изменения заказов в Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/mmeshcher/storeadmin/internal/model"
)

// TypeOrderStatusChanged задаёт тип события смены статуса заказа.
const TypeOrderStatusChanged = "order.status_changed"

// StatusChangedEvent описывает полезную нагрузку события смены статуса.
type StatusChangedEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	OrderID   int64     `json:"order_id"`
	UserID    string    `json:"user_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Version   int64     `json:"version"`
	ChangedBy string    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewStatusChangedEvent строит событие по результату смены статуса.
func NewStatusChangedEvent(c model.StatusChange) StatusChangedEvent {
	return StatusChangedEvent{
		EventID:   uuid.NewString(),
		Type:      TypeOrderStatusChanged,
		OrderID:   c.OrderID,
		UserID:    c.UserID,
		OldStatus: string(c.OldStatus),
		NewStatus: string(c.NewStatus),
		Version:   c.Version,
		ChangedBy: c.ChangedBy,
		ChangedAt: c.ChangedAt.UTC(),
	}
}

// ParseBrokers разбирает список брокеров, разделённых запятыми.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// KafkaPublisher публикует события в один топик.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher создаёт издателя. Возвращает nil, если брокеры не заданы.
func NewKafkaPublisher(brokersCSV, topic string) *KafkaPublisher {
	brokers := ParseBrokers(brokersCSV)
	if len(brokers) == 0 {
		return nil
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// PublishStatusChanged публикует событие; ключом сообщения служит идентификатор заказа,
// поэтому события одного заказа попадают в одну партицию.
func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, c model.StatusChange) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(NewStatusChangedEvent(c))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(c.OrderID, 10)),
		Value: data,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close закрывает writer.
func (p *KafkaPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
