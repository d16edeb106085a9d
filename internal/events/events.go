// Package events publishes order lifecycle events to the message bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bhesbhusa/internal/config"
	"bhesbhusa/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	OrderCreated       = "order.created"
	OrderCancelled     = "order.cancelled"
	OrderStatusChanged = "order.status_changed"
	OrderPaid          = "order.paid"
)

// OrderEvent is the message body published for every order change.
type OrderEvent struct {
	Type           string              `json:"type"`
	OrderID        string              `json:"orderId"`
	OrderNumber    string              `json:"orderNumber,omitempty"`
	UserID         string              `json:"userId,omitempty"`
	Status         model.OrderStatus   `json:"status,omitempty"`
	PreviousStatus model.OrderStatus   `json:"previousStatus,omitempty"`
	PaymentStatus  model.PaymentStatus `json:"paymentStatus,omitempty"`
	Total          string              `json:"total,omitempty"`
	OccurredAt     time.Time           `json:"occurredAt"`
}

// NewOrderEvent builds an event snapshot of order.
func NewOrderEvent(eventType string, order *model.Order) OrderEvent {
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID.String(),
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total.StringFixed(2),
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher emits order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// messageWriter is satisfied by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewPublisher returns a Kafka publisher, or a no-op one when disabled.
func NewPublisher(cfg config.KafkaConfig, logger zerolog.Logger) Publisher {
	logger = logger.With().Str("component", "events").Logger()

	if !cfg.Enabled {
		logger.Info().Msg("event publishing disabled; using noop publisher")
		return NoopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug().Msgf(msg, args...) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error().Msgf(msg, args...) }),
	}

	logger.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("kafka publisher initialised")

	return newKafkaPublisher(writer, cfg.Topic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger zerolog.Logger) *kafkaPublisher {
	return &kafkaPublisher{writer: w, topic: topic, logger: logger}
}

// Publish writes the event keyed by order ID so one order's events stay ordered.
func (p *kafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug().Str("type", event.Type).Str("order_id", event.OrderID).Msg("event published")
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }
