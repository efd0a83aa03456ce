package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"promosync/internal/models"
)

const (
	TypeSyncRequested  = "sync.requested"
	TypeSyncAll        = "sync.all"
	TypeSweepRequested = "sweep.requested"
)

// Event is the message exchanged on the catalog-events topic. Rules are
// only present on sweep requests.
type Event struct {
	Type      string                  `json:"type"`
	TenantID  string                  `json:"tenant_id,omitempty"`
	Rules     []models.CollectionRule `json:"rules,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Publisher writes catalog events to Kafka. The API uses it to hand
// long-running work to the worker instead of holding the request open.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TenantID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
