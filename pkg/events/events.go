package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/example/shopfront/pkg/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	OrderCreated       = "order.created"
	OrderCancelled     = "order.cancelled"
	OrderStatusChanged = "order.status_changed"
	PaymentCompleted   = "payment.completed"
)

var ErrPublisherClosed = errors.New("publisher closed")

// Event is the JSON body written to the orders topic. Messages are keyed by
// order id so one order's events stay on one partition.
type Event struct {
	Type       string                 `json:"type"`
	OrderID    uint                   `json:"order_id"`
	UserID     uint                   `json:"user_id"`
	Status     string                 `json:"status,omitempty"`
	PrevStatus string                 `json:"prev_status,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	closed atomic.Bool
}

func NewKafkaPublisher(cfg *config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Warn("kafka writer", zap.String("detail", fmt.Sprintf(msg, args...)))
		}),
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.OrderID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
