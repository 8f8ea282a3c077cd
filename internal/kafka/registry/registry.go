// Package registry provides a lightweight event handler registry for Kafka
// events. Each handler registers itself via init(), so the consumer never
// changes when a new event kind is added.
package registry

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/campo-social/notification/internal/application"
)

// Handler processes one raw Kafka message against the application service.
// Returning an error means the event was understood but failed; the
// consumer logs it and moves on (never retries against the writer).
type Handler func(ctx context.Context, svc *application.Service, data []byte) error

var handlers = map[string]Handler{}

// Register binds a handler to a {topic}:{eventType} key. Called from each
// handler file's init(). Panics on duplicate registration to catch wiring
// mistakes early.
func Register(topic, eventType string, h Handler) {
	key := topic + ":" + eventType
	if _, exists := handlers[key]; exists {
		panic("registry: duplicate handler registered for key: " + key)
	}
	handlers[key] = h
}

// RegisterDirect binds a handler to a whole topic, bypassing eventType
// routing.
func RegisterDirect(topic string, h Handler) {
	Register(topic, "", h)
}

// Dispatch looks up and calls the handler for topic + the eventType probed
// from the message body. Returns false if no handler matched.
func Dispatch(ctx context.Context, svc *application.Service, topic string, data []byte) bool {
	var probe struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		log.Warn().Str("topic", topic).Err(err).Msg("registry: failed to probe eventType")
		return false
	}

	key := topic + ":" + probe.EventType
	h, ok := handlers[key]
	if !ok {
		log.Debug().Str("key", key).Msg("registry: no handler registered")
		return false
	}
	if err := h(ctx, svc, data); err != nil {
		log.Error().Err(err).Str("key", key).Msg("registry: handler failed")
	}
	return true
}

// DispatchDirect calls the handler registered for a topic without eventType
// routing. Used for command topics where the whole message is the command.
func DispatchDirect(ctx context.Context, svc *application.Service, topic string, data []byte) bool {
	h, ok := handlers[topic+":"]
	if !ok {
		return false
	}
	if err := h(ctx, svc, data); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("registry: handler failed")
	}
	return true
}
