package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain/otp"
	"github.com/amirasaad/voicepay/pkg/repository"
)

type memoryEntry struct {
	record    otpRecord
	expiresAt time.Time
}

// MemoryOTPStore is the in-process OTP store used by the CLI and tests.
type MemoryOTPStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	retention time.Duration
	now       func() time.Time
}

// NewMemoryOTPStore creates an empty store.
func NewMemoryOTPStore(retention time.Duration) *MemoryOTPStore {
	return &MemoryOTPStore{
		entries:   make(map[string]memoryEntry),
		retention: retention,
		now:       time.Now,
	}
}

var _ repository.OTPStore = (*MemoryOTPStore)(nil)

func (c *MemoryOTPStore) Replace(_ context.Context, o *otp.OTP) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[o.Phone] = memoryEntry{record: toRecord(o), expiresAt: o.ExpiresAt.Add(c.retention)}
	return nil
}

func (c *MemoryOTPStore) Latest(_ context.Context, phone string) (*otp.OTP, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[phone]
	if !ok || c.now().After(e.expiresAt) {
		return nil, otp.ErrOTPNotFound
	}
	return e.record.toDomain(), nil
}

func (c *MemoryOTPStore) Update(_ context.Context, o *otp.OTP) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[o.Phone]
	if !ok || c.now().After(e.expiresAt) {
		return otp.ErrOTPNotFound
	}
	e.record = toRecord(o)
	c.entries[o.Phone] = e
	return nil
}
