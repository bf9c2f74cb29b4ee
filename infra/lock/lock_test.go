package lock

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirasaad/voicepay/pkg/lock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockers(t *testing.T) map[string]lock.Locker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return map[string]lock.Locker{
		"memory": NewMemoryLocker(),
		"redis": NewRedisLocker(client, RedisOptions{
			KeyPrefix:  "test:",
			Expiry:     5 * time.Second,
			Tries:      200,
			RetryDelay: 5 * time.Millisecond,
		}, logger),
	}
}

func TestLocker_MutualExclusion(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				inside  int
				maxSeen int
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					keys := []string{"account:a", "account:b"}
					if i%2 == 0 {
						keys = []string{"account:b", "account:a"}
					}
					release, err := l.Lock(context.Background(), keys...)
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					inside++
					if inside > maxSeen {
						maxSeen = inside
					}
					mu.Unlock()
					time.Sleep(2 * time.Millisecond)
					mu.Lock()
					inside--
					mu.Unlock()
					release()
				}(i)
			}
			wg.Wait()
			assert.Equal(t, 1, maxSeen)
		})
	}
}

func TestLocker_DisjointKeysDoNotBlock(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			release, err := l.Lock(context.Background(), "account:a")
			require.NoError(t, err)
			defer release()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			other, err := l.Lock(ctx, "account:c")
			require.NoError(t, err)
			other()
		})
	}
}

func TestMemoryLocker_ContextCancel(t *testing.T) {
	l := NewMemoryLocker()
	release, err := l.Lock(context.Background(), "account:a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "account:b", "account:a")
	assert.ErrorIs(t, err, lock.ErrLockTimeout)

	release()
	release()
	assert.Equal(t, 0, l.size(), "slots must be dropped once unused")
}
