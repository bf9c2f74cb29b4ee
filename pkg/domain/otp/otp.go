// Package otp models the one-time code that proves possession of a phone
// number before signup.
package otp

import (
	"fmt"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/google/uuid"
)

// CodeLength is the number of digits in an issued code.
const CodeLength = 6

// MaxAttempts is how many wrong codes an OTP tolerates before it is locked.
const MaxAttempts = 5

var (
	// ErrOTPNotFound is returned when no code was issued for the phone.
	ErrOTPNotFound = fmt.Errorf("%w: no OTP issued for this phone", domain.ErrNotFound)
	// ErrOTPExpired is returned when the code is past its expiry.
	ErrOTPExpired = fmt.Errorf("%w: OTP expired", domain.ErrInvalidInput)
	// ErrOTPMismatch is returned when the submitted code is wrong.
	ErrOTPMismatch = fmt.Errorf("%w: invalid OTP", domain.ErrUnauthorized)
	// ErrOTPNotVerified is returned when signup is attempted without a verified code.
	ErrOTPNotVerified = fmt.Errorf("%w: phone number not verified", domain.ErrUnauthorized)
	// ErrOTPConsumed is returned when a verified code was already used for signup.
	ErrOTPConsumed = fmt.Errorf("%w: OTP already used", domain.ErrUnauthorized)
	// ErrOTPLocked is returned once a code has seen MaxAttempts wrong guesses.
	ErrOTPLocked = fmt.Errorf("%w: too many wrong attempts, request a new OTP", domain.ErrUnauthorized)
)

// OTP is a hashed, expiring credential. Lifecycle: issued, then verified,
// then consumed by signup; or issued then expired.
type OTP struct {
	ID         uuid.UUID
	Phone      string
	CodeHash   string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	ConsumedAt *time.Time
	// Attempts counts wrong codes submitted against this OTP.
	Attempts int
}

// New returns an unverified OTP valid for ttl from now.
func New(phone, codeHash string, now time.Time, ttl time.Duration) *OTP {
	return &OTP{
		ID:        uuid.New(),
		Phone:     phone,
		CodeHash:  codeHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the code can no longer be verified at now.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// Verified reports whether the code was successfully checked.
func (o *OTP) Verified() bool {
	return o.VerifiedAt != nil
}

// Consumed reports whether the verification was already spent on a signup.
func (o *OTP) Consumed() bool {
	return o.ConsumedAt != nil
}

// Locked reports whether the code has run out of attempts.
func (o *OTP) Locked() bool {
	return o.Attempts >= MaxAttempts
}

// RecordMiss counts a wrong code.
func (o *OTP) RecordMiss() {
	o.Attempts++
}

// MarkVerified records a successful verification.
func (o *OTP) MarkVerified(now time.Time) {
	o.VerifiedAt = &now
}

// MarkConsumed records that the verification was used.
func (o *OTP) MarkConsumed(now time.Time) {
	o.ConsumedAt = &now
}

// UsableForSignup checks that the code was verified within window and not yet spent.
func (o *OTP) UsableForSignup(now time.Time, window time.Duration) error {
	if !o.Verified() {
		return ErrOTPNotVerified
	}
	if o.Consumed() {
		return ErrOTPConsumed
	}
	if now.After(o.VerifiedAt.Add(window)) {
		return ErrOTPExpired
	}
	return nil
}
