package repository

import (
	"context"

	"github.com/amirasaad/voicepay/pkg/domain/otp"
	"github.com/amirasaad/voicepay/pkg/repository"
	"gorm.io/gorm"
)

type otpStore struct {
	db *gorm.DB
}

// NewOTPStore returns the table-backed OTP store.
func NewOTPStore(db *gorm.DB) repository.OTPStore {
	return &otpStore{db: db}
}

var _ repository.OTPStore = (*otpStore)(nil)

func (s *otpStore) Replace(ctx context.Context, o *otp.OTP) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone = ?", o.Phone).Delete(&OTP{}).Error; err != nil {
			return err
		}
		m := fromDomainOTP(o)
		return tx.Create(&m).Error
	})
}

func (s *otpStore) Latest(ctx context.Context, phone string) (*otp.OTP, error) {
	var m OTP
	err := s.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("issued_at DESC").
		First(&m).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err, otp.ErrOTPNotFound)
	}
	return &otp.OTP{
		ID:         m.ID,
		Phone:      m.Phone,
		CodeHash:   m.CodeHash,
		IssuedAt:   m.IssuedAt,
		ExpiresAt:  m.ExpiresAt,
		VerifiedAt: m.VerifiedAt,
		ConsumedAt: m.ConsumedAt,
		Attempts:   m.Attempts,
	}, nil
}

func (s *otpStore) Update(ctx context.Context, o *otp.OTP) error {
	res := s.db.WithContext(ctx).
		Model(&OTP{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{"verified_at": o.VerifiedAt, "consumed_at": o.ConsumedAt, "attempts": o.Attempts})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return otp.ErrOTPNotFound
	}
	return nil
}

func fromDomainOTP(o *otp.OTP) OTP {
	return OTP{
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
