package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/voicepay/pkg/domain/events"
	"github.com/amirasaad/voicepay/pkg/eventbus"
)

// MemoryEventBus runs handlers synchronously on the emitting goroutine.
// Handler errors are logged and never returned to the emitter.
type MemoryEventBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []events.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type.
func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[event.Type()]...)
	b.mu.Unlock()

	runHandlers(ctx, b.logger, event, handlers)
	return nil
}

// Published returns a copy of every emitted event.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event{}, b.published...)
}

// ClearPublished forgets recorded events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)

type queued struct {
	ctx   context.Context
	event events.Event
}

// MemoryAsyncEventBus hands events to a background worker so emitters never
// wait on slow handlers such as webhook notifications.
type MemoryAsyncEventBus struct {
	handlers map[string][]eventbus.HandlerFunc
	mu       sync.RWMutex
	eventCh  chan queued
	done     chan struct{}
	once     sync.Once
	log      *slog.Logger
}

// NewWithMemoryAsync starts the worker. Close drains the queue.
func NewWithMemoryAsync(logger *slog.Logger, buffer int) *MemoryAsyncEventBus {
	if buffer <= 0 {
		buffer = 100
	}
	b := &MemoryAsyncEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		eventCh:  make(chan queued, buffer),
		done:     make(chan struct{}),
		log:      logger.With("bus", "memory-async"),
	}
	go b.process()
	return b
}

func (b *MemoryAsyncEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Emit enqueues the event. The handler context is detached from the
// request so cancellation of the caller does not abort delivery.
func (b *MemoryAsyncEventBus) Emit(ctx context.Context, event events.Event) error {
	select {
	case b.eventCh <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (b *MemoryAsyncEventBus) Close() error {
	b.once.Do(func() { close(b.eventCh) })
	<-b.done
	return nil
}

func (b *MemoryAsyncEventBus) process() {
	defer close(b.done)
	for q := range b.eventCh {
		b.mu.RLock()
		handlers := append([]eventbus.HandlerFunc{}, b.handlers[q.event.Type()]...)
		b.mu.RUnlock()
		runHandlers(q.ctx, b.log, q.event, handlers)
	}
}

var _ eventbus.Bus = (*MemoryAsyncEventBus)(nil)

// runHandlers calls each handler, recovering panics. It reports whether
// every handler succeeded.
func runHandlers(ctx context.Context, log *slog.Logger, event events.Event, handlers []eventbus.HandlerFunc) bool {
	ok := true
	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in event handler", "type", event.Type(), "panic", r)
					ok = false
				}
			}()
			if err := handler(ctx, event); err != nil {
				log.Error("failed to process event", "type", event.Type(), "error", err)
				ok = false
			}
		}()
	}
	return ok
}
