package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/voicepay/pkg/lock"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the distributed lock.
type RedisOptions struct {
	KeyPrefix  string
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// RedisLocker serializes critical sections across replicas with the
// Redlock algorithm.
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   RedisOptions
	logger *slog.Logger
}

// NewRedisLocker builds a RedisLocker on top of an existing client.
func NewRedisLocker(client redis.UniversalClient, opts RedisOptions, logger *slog.Logger) *RedisLocker {
	if opts.Expiry <= 0 {
		opts.Expiry = 10 * time.Second
	}
	if opts.Tries < 1 {
		opts.Tries = 32
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 50 * time.Millisecond
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger.With("component", "redis-locker"),
	}
}

var _ lock.Locker = (*RedisLocker)(nil)

// Lock acquires keys in ascending order. Locks auto-expire after Expiry so a
// crashed holder cannot wedge an account forever.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := lock.Ordered(keys)
	held := make([]*redsync.Mutex, 0, len(ordered))
	for _, key := range ordered {
		m := l.rs.NewMutex(
			l.opts.KeyPrefix+"lock:"+key,
			redsync.WithExpiry(l.opts.Expiry),
			redsync.WithTries(l.opts.Tries),
			redsync.WithRetryDelay(l.opts.RetryDelay),
		)
		if err := m.LockContext(ctx); err != nil {
			l.logger.Warn("failed to acquire lock", "key", key, "error", err)
			l.releaseAll(held)
			return nil, fmt.Errorf("%w: %s: %w", lock.ErrLockTimeout, key, err)
		}
		held = append(held, m)
	}
	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

func (l *RedisLocker) releaseAll(held []*redsync.Mutex) {
	for i := len(held) - 1; i >= 0; i-- {
		if ok, err := held[i].UnlockContext(context.Background()); !ok || err != nil {
			l.logger.Error("failed to release lock", "key", held[i].Name(), "unlock_ok", ok, "error", err)
		}
	}
}
