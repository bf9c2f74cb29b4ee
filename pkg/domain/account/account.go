package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientBalance is returned when the sender cannot cover a transfer.
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", domain.ErrInsufficientBalance)

	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = fmt.Errorf("%w: account not found", domain.ErrNotFound)

	// ErrTransactionNotFound is returned when a ledger row does not exist or is not visible.
	ErrTransactionNotFound = fmt.Errorf("%w: transaction not found", domain.ErrNotFound)

	// ErrSameAccount is returned when a transfer is attempted from an account to itself.
	ErrSameAccount = fmt.Errorf("%w: cannot transfer to same account", domain.ErrInvalidInput)

	// ErrNilAccount is returned when a nil account is provided to a transfer.
	ErrNilAccount = errors.New("nil account")

	// ErrDuplicatePhone is returned by the store when a phone is already registered.
	ErrDuplicatePhone = fmt.Errorf("%w: phone already registered", domain.ErrConflict)

	// ErrDuplicateHandle is returned by the store when a handle is already registered.
	ErrDuplicateHandle = fmt.Errorf("%w: handle already registered", domain.ErrConflict)
)

// Account holds the balance of exactly one user.
//
// Invariants:
//   - An account always has an owner (UserID).
//   - Balance is an exact decimal and never negative.
//   - Balance only changes through Debit and Credit, which the ledger engine
//     calls while holding the row lock for this account.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id        uuid.UUID
	userID    uuid.UUID
	balance   decimal.Decimal
	createdAt time.Time
	updatedAt time.Time
}

// New creates a Builder with a fresh ID and zero balance.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		id:        uuid.New(),
		balance:   decimal.Zero,
		createdAt: now,
		updatedAt: now,
	}
}

// WithID sets the ID for the account being built.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithUserID sets the owner. Mandatory.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.userID = userID
	return b
}

// WithBalance sets the opening balance. Used for hydration, test setup and
// the configured signup grant.
func (b *Builder) WithBalance(balance decimal.Decimal) *Builder {
	b.balance = balance
	return b
}

func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.userID == uuid.Nil {
		return nil, fmt.Errorf("%w: userID is required", domain.ErrInvalidInput)
	}
	if b.balance.IsNegative() {
		return nil, fmt.Errorf("%w: balance cannot be negative", domain.ErrInvalidInput)
	}
	return &Account{
		ID:        b.id,
		UserID:    b.userID,
		Balance:   b.balance,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}, nil
}

// ValidateTransfer checks every precondition of moving amount from a to dest.
// It must be called on freshly locked rows; the balance check is only
// meaningful while no other transfer can touch a.
func (a *Account) ValidateTransfer(dest *Account, amount decimal.Decimal) error {
	if a == nil || dest == nil {
		return ErrNilAccount
	}
	if a.ID == dest.ID {
		return ErrSameAccount
	}
	if err := money.RequirePositive(amount); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// Debit subtracts amount. The balance never goes below zero.
func (a *Account) Debit(amount decimal.Decimal, at time.Time) error {
	if err := money.RequirePositive(amount); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = at
	return nil
}

// Credit adds amount.
func (a *Account) Credit(amount decimal.Decimal, at time.Time) error {
	if err := money.RequirePositive(amount); err != nil {
		return err
	}
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = at
	return nil
}
