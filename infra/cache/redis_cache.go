package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain/otp"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type otpRecord struct {
	ID         uuid.UUID  `json:"id"`
	Phone      string     `json:"phone"`
	CodeHash   string     `json:"code_hash"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	Attempts   int        `json:"attempts,omitempty"`
}

// RedisOTPStore keeps one code per phone under a TTL key, so replacing a code
// is a single SET and stale codes disappear on their own.
type RedisOTPStore struct {
	client redis.UniversalClient
	prefix string
	// retention keeps a verified code readable after expiry for the signup window.
	retention time.Duration
	logger    *slog.Logger
}

// NewRedisOTPStore creates a RedisOTPStore.
func NewRedisOTPStore(
	client redis.UniversalClient,
	prefix string,
	retention time.Duration,
	logger *slog.Logger,
) *RedisOTPStore {
	return &RedisOTPStore{client: client, prefix: prefix, retention: retention, logger: logger}
}

var _ repository.OTPStore = (*RedisOTPStore)(nil)

func (r *RedisOTPStore) key(phone string) string {
	return r.prefix + "otp:" + phone
}

func (r *RedisOTPStore) Replace(ctx context.Context, o *otp.OTP) error {
	data, err := json.Marshal(toRecord(o))
	if err != nil {
		return err
	}
	ttl := time.Until(o.ExpiresAt) + r.retention
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, r.key(o.Phone), data, ttl).Err(); err != nil {
		r.logger.Error("Redis otp set error", "error", err)
		return err
	}
	r.logger.Debug("Redis otp set", "ttl", ttl)
	return nil
}

func (r *RedisOTPStore) Latest(ctx context.Context, phone string) (*otp.OTP, error) {
	val, err := r.client.Get(ctx, r.key(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, otp.ErrOTPNotFound
	}
	if err != nil {
		r.logger.Error("Redis otp get error", "error", err)
		return nil, err
	}
	var rec otpRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		r.logger.Error("Redis otp unmarshal error", "error", err)
		return nil, err
	}
	return rec.toDomain(), nil
}

// Update rewrites the record in place, keeping its TTL. A record that
// already expired is reported as not found.
func (r *RedisOTPStore) Update(ctx context.Context, o *otp.OTP) error {
	data, err := json.Marshal(toRecord(o))
	if err != nil {
		return err
	}
	err = r.client.SetArgs(ctx, r.key(o.Phone), data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return otp.ErrOTPNotFound
	}
	return err
}

func toRecord(o *otp.OTP) otpRecord {
	return otpRecord{
		ID:         o.ID,
		Phone:      o.Phone,
		CodeHash:   o.CodeHash,
		IssuedAt:   o.IssuedAt,
		ExpiresAt:  o.ExpiresAt,
		VerifiedAt: o.VerifiedAt,
		ConsumedAt: o.ConsumedAt,
		Attempts:   o.Attempts,
	}
}

func (r otpRecord) toDomain() *otp.OTP {
	return &otp.OTP{
		ID:         r.ID,
		Phone:      r.Phone,
		CodeHash:   r.CodeHash,
		IssuedAt:   r.IssuedAt,
		ExpiresAt:  r.ExpiresAt,
		VerifiedAt: r.VerifiedAt,
		ConsumedAt: r.ConsumedAt,
		Attempts:   r.Attempts,
	}
}
