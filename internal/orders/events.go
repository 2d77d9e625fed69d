package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// Order event types published to the orders topic.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderFulfilled = "order.fulfilled"
	EventOrderCanceled  = "order.canceled"
)

// OrderEvent is the message body published for order lifecycle changes.
type OrderEvent struct {
	EventID    uuid.UUID         `json:"event_id"`
	Type       string            `json:"type"`
	OrderID    uuid.UUID         `json:"order_id"`
	Status     enums.OrderStatus `json:"status"`
	Email      string            `json:"email,omitempty"`
	Total      string            `json:"total,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

type topicPublisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	OrdersTopic() string
}

// PubSubPublisher publishes order events as JSON to the configured orders topic.
type PubSubPublisher struct {
	client topicPublisher
}

func NewPubSubPublisher(client topicPublisher) *PubSubPublisher {
	return &PubSubPublisher{client: client}
}

func (p *PubSubPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	_, err = p.client.Publish(ctx, p.client.OrdersTopic(), data, map[string]string{
		"event_type": event.Type,
		"event_id":   event.EventID.String(),
		"order_id":   event.OrderID.String(),
	})
	return err
}

// NopPublisher drops events; used when Pub/Sub is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }
