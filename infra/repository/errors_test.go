package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()
	other := errors.New("some other error")

	tests := []struct {
		name     string
		input    error
		notFound []error
		expected error
	}{
		{name: "nil error returns nil", input: nil, expected: nil},
		{name: "duplicate key maps to conflict", input: gorm.ErrDuplicatedKey, expected: domain.ErrConflict},
		{name: "record not found maps to not found", input: gorm.ErrRecordNotFound, expected: domain.ErrNotFound},
		{
			name:     "record not found uses specific error",
			input:    fmt.Errorf("query: %w", gorm.ErrRecordNotFound),
			notFound: []error{account.ErrAccountNotFound},
			expected: account.ErrAccountNotFound,
		},
		{
			name:     "postgres unique violation maps to conflict",
			input:    &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_phone"},
			expected: domain.ErrConflict,
		},
		{
			name:     "sqlite unique violation maps to conflict",
			input:    errors.New("UNIQUE constraint failed: users.handle"),
			expected: domain.ErrConflict,
		},
		{name: "non-GORM error returns original", input: other, expected: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input, tt.notFound...)
			if tt.expected == nil {
				assert.NoError(t, result)
				return
			}
			assert.ErrorIs(t, result, tt.expected)
		})
	}
}

func TestUniqueViolation(t *testing.T) {
	name, ok := uniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_handle"})
	assert.True(t, ok)
	assert.Equal(t, "idx_users_handle", name)

	name, ok = uniqueViolation(errors.New("UNIQUE constraint failed: users.phone"))
	assert.True(t, ok)
	assert.Equal(t, "users.phone", name)

	_, ok = uniqueViolation(errors.New("connection refused"))
	assert.False(t, ok)
}
