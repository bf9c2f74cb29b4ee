package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifecycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	o := New("+919999999999", "hash", now, 5*time.Minute)

	assert.False(t, o.Expired(now.Add(4*time.Minute)))
	assert.True(t, o.Expired(now.Add(5*time.Minute)))

	assert.ErrorIs(t, o.UsableForSignup(now, 15*time.Minute), ErrOTPNotVerified)

	o.MarkVerified(now.Add(time.Minute))
	assert.NoError(t, o.UsableForSignup(now.Add(2*time.Minute), 15*time.Minute))
	assert.ErrorIs(t, o.UsableForSignup(now.Add(20*time.Minute), 15*time.Minute), ErrOTPExpired)

	o.MarkConsumed(now.Add(3 * time.Minute))
	assert.ErrorIs(t, o.UsableForSignup(now.Add(4*time.Minute), 15*time.Minute), ErrOTPConsumed)
}

func TestLockedAfterMaxAttempts(t *testing.T) {
	o := New("+919999999999", "hash", time.Now(), time.Minute)
	for i := 0; i < MaxAttempts-1; i++ {
		o.RecordMiss()
		assert.False(t, o.Locked(), "attempt %d", i+1)
	}
	o.RecordMiss()
	assert.True(t, o.Locked())
	assert.Equal(t, MaxAttempts, o.Attempts)
}
