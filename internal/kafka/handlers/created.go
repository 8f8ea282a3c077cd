// Package handlers wires Kafka event handlers into the registry.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/campo-social/notification/internal/application"
	"github.com/campo-social/notification/internal/domain"
	"github.com/campo-social/notification/internal/kafka/registry"
)

// Topic names match the config defaults in internal/config.
const (
	TopicCreated  = "notification-created"
	TopicCommands = "notification-commands"
)

func init() {
	registry.Register(TopicCreated, "NOTIFICATION_CREATED", handleCreated)
}

// handleCreated invokes the Delivery Engine once for a newly created
// record. A record or recipient that disappeared between creation and
// dispatch surfaces as a failed outcome, which the engine already logged;
// nothing propagates back to the writer.
func handleCreated(ctx context.Context, svc *application.Service, data []byte) error {
	var env struct {
		EventID string          `json:"eventId"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode created envelope: %w", err)
	}

	var n domain.Notification
	if err := json.Unmarshal(env.Payload, &n); err != nil {
		return fmt.Errorf("decode created payload: %w", err)
	}

	outcome := svc.Deliver(ctx, &n)
	log.Debug().
		Str("id", n.ID.String()).
		Str("event_id", env.EventID).
		Int("outcome", int(outcome.Kind)).
		Msg("trigger delivery processed")
	return nil
}
