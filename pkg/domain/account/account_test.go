package account_test

import (
	"testing"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain"
	domainaccount "github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, balance int64) *domainaccount.Account {
	t.Helper()
	acc, err := domainaccount.New().
		WithUserID(uuid.New()).
		WithBalance(decimal.NewFromInt(balance)).
		Build()
	require.NoError(t, err)
	return acc
}

func TestNewAccount(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	acc, err := domainaccount.New().WithUserID(uuid.New()).Build()
	require.NoError(err)
	assert.NotEmpty(t, acc.ID)
	assert.True(t, acc.Balance.IsZero())

	_, err = domainaccount.New().Build()
	require.ErrorIs(err, domain.ErrInvalidInput)

	_, err = domainaccount.New().WithUserID(uuid.New()).WithBalance(decimal.NewFromInt(-1)).Build()
	require.ErrorIs(err, domain.ErrInvalidInput)
}

func TestValidateTransfer(t *testing.T) {
	t.Parallel()
	sender := newAccount(t, 1000)
	receiver := newAccount(t, 0)

	tests := []struct {
		name     string
		dest     *domainaccount.Account
		amount   decimal.Decimal
		expected error
	}{
		{name: "valid", dest: receiver, amount: decimal.NewFromInt(300)},
		{name: "whole balance", dest: receiver, amount: decimal.NewFromInt(1000)},
		{name: "same account", dest: sender, amount: decimal.NewFromInt(1), expected: domainaccount.ErrSameAccount},
		{name: "zero amount", dest: receiver, amount: decimal.Zero, expected: money.ErrNonPositiveAmount},
		{name: "negative amount", dest: receiver, amount: decimal.NewFromInt(-5), expected: money.ErrNonPositiveAmount},
		{name: "overdraft", dest: receiver, amount: decimal.NewFromInt(1001), expected: domainaccount.ErrInsufficientBalance},
		{name: "nil dest", dest: nil, amount: decimal.NewFromInt(1), expected: domainaccount.ErrNilAccount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := sender.ValidateTransfer(tc.dest, tc.amount)
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestDebitCredit(t *testing.T) {
	t.Parallel()
	acc := newAccount(t, 100)
	now := time.Now()

	require.NoError(t, acc.Credit(decimal.RequireFromString("0.50"), now))
	assert.Equal(t, "100.50", money.Format(acc.Balance))

	require.NoError(t, acc.Debit(decimal.RequireFromString("100.50"), now))
	assert.True(t, acc.Balance.IsZero())

	err := acc.Debit(decimal.NewFromInt(1), now)
	assert.ErrorIs(t, err, domainaccount.ErrInsufficientBalance)
	assert.True(t, acc.Balance.IsZero(), "failed debit must not change balance")
}
