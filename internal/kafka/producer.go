package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/campo-social/notification/internal/domain"
)

// EventNotificationCreated is the envelope eventType for created records.
const EventNotificationCreated = "NOTIFICATION_CREATED"

// Producer implements domain.EventPublisher on Kafka: one record-created
// event per store write, keyed by notification id so redeliveries of the
// same record land on the same partition.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer creates a Producer publishing to the given topic.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{client: client, topic: topic}, nil
}

// NotificationCreated publishes the full record plus its assigned id.
// Synchronous: the caller decides whether to log or swallow the error.
func (p *Producer) NotificationCreated(ctx context.Context, n *domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	env, err := json.Marshal(EventEnvelope{
		EventType: EventNotificationCreated,
		EventID:   uuid.NewString(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(n.ID.String()),
		Value: env,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce created event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}
