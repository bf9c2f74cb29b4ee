package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/amirasaad/voicepay/pkg/lock"
)

// MemoryLocker serializes critical sections within one process. Slots are
// created on demand and dropped when no goroutine holds or waits on them,
// so memory stays proportional to contention, not to the number of accounts.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker returns an in-process Locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*slot)}
}

var _ lock.Locker = (*MemoryLocker)(nil)

// Lock acquires keys in ascending order, blocking until all are held or ctx ends.
func (l *MemoryLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := lock.Ordered(keys)
	held := make([]string, 0, len(ordered))
	for _, key := range ordered {
		if err := l.acquire(ctx, key); err != nil {
			l.releaseAll(held)
			return nil, err
		}
		held = append(held, key)
	}
	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

func (l *MemoryLocker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.unref(key, s)
		l.mu.Unlock()
		return fmt.Errorf("%w: %s: %w", lock.ErrLockTimeout, key, ctx.Err())
	}
}

func (l *MemoryLocker) releaseAll(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(keys) - 1; i >= 0; i-- {
		s := l.slots[keys[i]]
		<-s.ch
		l.unref(keys[i], s)
	}
}

func (l *MemoryLocker) unref(key string, s *slot) {
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// size is the number of live slots; used by tests.
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
