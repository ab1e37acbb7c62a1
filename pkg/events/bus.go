// Package events provides the publish/subscribe fabric that decouples the
// engagement pipeline from downstream consumers such as the profile
// aggregator and the live websocket feed. Two implementations are provided:
// an in-process bus for single-node and test deployments, and a Redis
// Streams bus for multi-process deployments.
package events

import (
	"context"
	"log/slog"
)

// Event types emitted by the engagement pipeline.
const (
	EventScamDetected        = "scam.detected"
	EventEngagementTurn      = "engagement.turn"
	EventEngagementCompleted = "engagement.completed"
)

// Event is a single bus message. Payload holds the decoded fields keyed by
// name; values are whatever the publisher supplied (strings stay strings,
// structured values round-trip through JSON). Raw is the JSON object form
// for handlers that prefer to unmarshal into a typed payload.
type Event struct {
	Type    string
	Payload map[string]any
	Raw     []byte
}

// Handler consumes one event. Handlers must be safe for concurrent use when
// registered on the in-memory bus; the Redis consumer invokes them one
// message at a time.
type Handler func(ctx context.Context, evt Event)

// Bus publishes events to all handlers subscribed to the event type.
type Bus interface {
	// Start begins consuming for every subscription registered so far.
	// The in-memory bus needs no consumer and returns immediately.
	Start(ctx context.Context) error

	// Publish delivers the payload to subscribers of eventType. The payload
	// may be a typed struct or a map; it is flattened to named fields on the
	// wire.
	Publish(ctx context.Context, eventType string, payload any) error

	// Subscribe registers a handler for eventType. Handlers added to an
	// already-started consumer take effect from the next message.
	Subscribe(eventType string, handler Handler)

	// Close stops delivery and waits for in-flight handlers to return.
	Close() error
}

// dispatch invokes one handler, recovering panics so a misbehaving
// subscriber cannot take down the delivery loop.
func dispatch(ctx context.Context, h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler panicked",
				"event_type", evt.Type,
				"panic", r)
		}
	}()
	h(ctx, evt)
}
