// Package identity issues and checks the one-time codes that prove a caller
// owns a phone number.
package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/domain/otp"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/metrics"
	"github.com/amirasaad/voicepay/pkg/notify"
	"github.com/amirasaad/voicepay/pkg/repository"
	"golang.org/x/crypto/bcrypt"
)

// Issued describes a freshly sent code. Code is only populated when the
// service runs with RevealCodes, for local development.
type Issued struct {
	Phone     string
	ExpiresAt time.Time
	Code      string
}

// Service owns the OTP lifecycle.
type Service struct {
	store   repository.OTPStore
	sender  notify.Sender
	cfg     *config.OTP
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
	// RevealCodes echoes generated codes in Issue results.
	RevealCodes bool
}

// New creates a Service.
func New(
	store repository.OTPStore,
	sender notify.Sender,
	cfg *config.OTP,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		store:   store,
		sender:  sender,
		cfg:     cfg,
		metrics: recorder,
		logger:  logger.With("service", "identity"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a new code for phone, replacing any earlier one, and sends it.
func (s *Service) Issue(ctx context.Context, phone string) (*Issued, error) {
	normalized, err := user.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	log := s.logger.With("phone", maskPhone(normalized))

	code, err := generateCode(otp.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}
	o := otp.New(normalized, string(hash), s.now(), s.cfg.TTL)
	if err := s.store.Replace(ctx, o); err != nil {
		log.Error("Issue OTP failed", "error", err)
		return nil, err
	}
	err = s.sender.Send(ctx, notify.Message{
		Phone: normalized,
		Kind:  notify.KindOTP,
		Body:  fmt.Sprintf("Your VoicePay code is %s. It expires in %s.", code, s.cfg.TTL),
	})
	if err != nil {
		log.Error("OTP delivery failed", "error", err)
		return nil, err
	}
	s.metrics.OTPIssued()
	log.Info("OTP issued", "expires_at", o.ExpiresAt)

	issued := &Issued{Phone: normalized, ExpiresAt: o.ExpiresAt}
	if s.RevealCodes {
		issued.Code = code
	}
	return issued, nil
}

// Verify checks code against the latest issued OTP for phone and marks it
// verified. It returns the normalized phone. Wrong codes are counted and
// the OTP stops accepting any code after otp.MaxAttempts of them.
func (s *Service) Verify(ctx context.Context, phone, code string) (string, error) {
	normalized, err := user.NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	log := s.logger.With("phone", maskPhone(normalized))

	o, err := s.store.Latest(ctx, normalized)
	if err != nil {
		return "", err
	}
	now := s.now()
	if o.Expired(now) {
		return "", otp.ErrOTPExpired
	}
	if o.Locked() {
		return "", otp.ErrOTPLocked
	}
	if bcrypt.CompareHashAndPassword([]byte(o.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		o.RecordMiss()
		if err := s.store.Update(ctx, o); err != nil {
			return "", err
		}
		log.Warn("OTP mismatch", "attempts", o.Attempts)
		if o.Locked() {
			return "", otp.ErrOTPLocked
		}
		return "", otp.ErrOTPMismatch
	}
	if !o.Verified() {
		o.MarkVerified(now)
		if err := s.store.Update(ctx, o); err != nil {
			return "", err
		}
	}
	log.Info("OTP verified")
	return normalized, nil
}

// RequireVerified returns nil when phone holds a verified, unspent code
// inside the signup window.
func (s *Service) RequireVerified(ctx context.Context, phone string) error {
	o, err := s.store.Latest(ctx, phone)
	if err != nil {
		if errors.Is(err, otp.ErrOTPNotFound) {
			return otp.ErrOTPNotVerified
		}
		return err
	}
	return o.UsableForSignup(s.now(), s.cfg.SignupWindow)
}

// Consume spends the verification so it cannot create a second account.
func (s *Service) Consume(ctx context.Context, phone string) error {
	o, err := s.store.Latest(ctx, phone)
	if err != nil {
		return err
	}
	if err := o.UsableForSignup(s.now(), s.cfg.SignupWindow); err != nil {
		return err
	}
	o.MarkConsumed(s.now())
	return s.store.Update(ctx, o)
}

func generateCode(n int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
