package eventbus

import (
	"context"

	"github.com/amirasaad/voicepay/pkg/domain/events"
)

// HandlerFunc processes one event. A returned error is logged by the bus and,
// for stream backends, routes the message to the dead-letter stream.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus defines the contract for publishing and subscribing to domain events.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType string, handler HandlerFunc)
}
