package repository

import (
	"errors"
	"strings"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// MapGormErrorToDomain converts GORM errors to domain errors.
// notFound replaces the generic domain.ErrNotFound when the caller knows
// which entity was missing.
func MapGormErrorToDomain(err error, notFound ...error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if len(notFound) > 0 {
			return notFound[0]
		}
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	}
	if _, ok := uniqueViolation(err); ok {
		return domain.ErrConflict
	}
	return err
}

// WrapError wraps a GORM operation and automatically maps errors.
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(&m).Error
//	})
func WrapError(op func() error, notFound ...error) error {
	return MapGormErrorToDomain(op(), notFound...)
}

// uniqueViolation reports whether err is a unique-constraint failure and
// returns the violated constraint (Postgres) or column (SQLite) when known.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		return strings.TrimSpace(msg[strings.LastIndex(msg, ":")+1:]), true
	}
	return "", false
}
