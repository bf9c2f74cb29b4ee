package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain/events"
	"github.com/amirasaad/voicepay/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisConfig names the streams and consumer group used by RedisEventBus.
type RedisConfig struct {
	// Stream prefixes every per-type stream, e.g. "voicepay-events:transfer:completed".
	Stream string
	Group  string
	// Block bounds each XREADGROUP call so Close returns promptly.
	Block time.Duration
}

// RedisEventBus publishes every event type to its own Redis stream and
// consumes with one consumer group per process role. Messages whose handlers
// fail are copied to a dead-letter stream before being acknowledged.
type RedisEventBus struct {
	client redis.UniversalClient
	cfg    RedisConfig
	logger *slog.Logger

	mu        sync.RWMutex
	handlers  map[string][]eventbus.HandlerFunc
	consumers map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis wraps an existing client.
func NewWithRedis(client redis.UniversalClient, cfg RedisConfig, logger *slog.Logger) (*RedisEventBus, error) {
	if client == nil {
		return nil, errors.New("redis event bus: client is required")
	}
	if cfg.Stream == "" {
		cfg.Stream = "voicepay-events"
	}
	if cfg.Group == "" {
		cfg.Group = "voicepay"
	}
	if cfg.Block <= 0 {
		cfg.Block = time.Second
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:    client,
		cfg:       cfg,
		logger:    logger.With("bus", "redis"),
		handlers:  make(map[string][]eventbus.HandlerFunc),
		consumers: make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (b *RedisEventBus) streamFor(eventType string) string {
	return nameFor(b.cfg.Stream, ":", eventType)
}

func (b *RedisEventBus) dlqFor(eventType string) string {
	return b.streamFor(eventType) + ":dlq"
}

// Emit appends the event to its stream.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encode(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.streamFor(event.Type()),
		Values: map[string]any{"event": string(raw)},
	}).Err()
	if err != nil {
		b.logger.Error("failed to emit event", "type", event.Type(), "error", err)
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register adds handler and starts the stream consumer for eventType on first use.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	_, running := b.consumers[eventType]
	b.consumers[eventType] = struct{}{}
	b.mu.Unlock()
	if running {
		return
	}

	stream := b.streamFor(eventType)
	err := b.client.XGroupCreateMkStream(b.ctx, stream, b.cfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		b.logger.Error("failed to create consumer group", "stream", stream, "error", err)
	}
	host, _ := os.Hostname()
	consumer := fmt.Sprintf("%s-%s-%d", b.cfg.Group, host, time.Now().UnixNano())

	b.wg.Add(1)
	go b.consume(eventType, stream, consumer)
	b.logger.Info("handler registered", "type", eventType, "stream", stream, "consumer", consumer)
}

func (b *RedisEventBus) consume(eventType, stream, consumer string) {
	defer b.wg.Done()
	for b.ctx.Err() == nil {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    b.cfg.Group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    b.cfg.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || b.ctx.Err() != nil {
				continue
			}
			b.logger.Error("error reading from stream", "stream", stream, "error", err)
			select {
			case <-b.ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.handleMessage(eventType, stream, msg)
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(eventType, stream string, msg redis.XMessage) {
	ctx := b.ctx
	raw, _ := msg.Values["event"].(string)
	event, err := decode([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode event", "stream", stream, "id", msg.ID, "error", err)
		b.pushToDLQ(ctx, eventType, msg.Values)
	} else {
		b.mu.RLock()
		handlers := append([]eventbus.HandlerFunc{}, b.handlers[eventType]...)
		b.mu.RUnlock()
		if !runHandlers(ctx, b.logger, event, handlers) {
			b.pushToDLQ(ctx, eventType, msg.Values)
		}
	}
	if err := b.client.XAck(ctx, stream, b.cfg.Group, msg.ID).Err(); err != nil {
		b.logger.Error("failed to acknowledge message", "id", msg.ID, "error", err)
	}
}

func (b *RedisEventBus) pushToDLQ(ctx context.Context, eventType string, values map[string]any) {
	dlq := b.dlqFor(eventType)
	if err := b.client.XAdd(ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "stream", dlq, "error", err)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

// Close stops every consumer. The client is owned by the caller.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
