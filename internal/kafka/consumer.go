package kafka

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/campo-social/notification/internal/application"
	"github.com/campo-social/notification/internal/kafka/registry"

	// Blank import triggers init() in each handler file, registering all
	// event handlers into the registry.
	_ "github.com/campo-social/notification/internal/kafka/handlers"
)

// Consumer is the trigger dispatcher: it reacts to record-created events
// (and broadcast commands) and invokes the application layer once per
// consumed record. Errors never propagate back to the original writer —
// the write has already been acknowledged.
type Consumer struct {
	client  *kgo.Client
	service *application.Service
}

// New creates a Consumer with the given brokers, group ID, and topics.
func New(brokers []string, groupID string, topics []string, svc *application.Service) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, service: svc}, nil
}

// Start polls Kafka and processes records until ctx is cancelled. Offsets
// are committed after processing, so delivery of each created record is
// at-least-once; the Delivery Engine tolerates re-invocation.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Msg("kafka consumer started")

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			log.Error().Err(err).Str("topic", topic).Int32("partition", partition).Msg("kafka fetch error")
		})

		fetches.EachRecord(func(r *kgo.Record) {
			c.process(ctx, r)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			log.Error().Err(err).Msg("kafka commit error")
		}
	}

	c.client.Close()
	log.Info().Msg("kafka consumer stopped")
}

// process dispatches one record via the registry. Command topics match
// without eventType routing; everything else is routed by the envelope's
// eventType field.
func (c *Consumer) process(ctx context.Context, r *kgo.Record) {
	log.Debug().
		Str("topic", r.Topic).
		Str("key", string(r.Key)).
		Msg("processing kafka record")

	if registry.DispatchDirect(ctx, c.service, r.Topic, r.Value) {
		return
	}
	if !registry.Dispatch(ctx, c.service, r.Topic, r.Value) {
		log.Debug().Str("topic", r.Topic).Msg("no handler matched, skipping")
	}
}

// EventEnvelope is the wrapper shared by all services on the event bus.
type EventEnvelope struct {
	EventType string          `json:"eventType"`
	EventID   string          `json:"eventId"`
	Payload   json.RawMessage `json:"payload"`
}
