package repository

import (
	"context"

	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/domain/otp"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines data access for users.
type UserRepository interface {
	// Create inserts u. Unique violations map to account.ErrDuplicatePhone or
	// account.ErrDuplicateHandle.
	Create(ctx context.Context, u *user.User) error
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByPhone(ctx context.Context, phone string) (*user.User, error)
	GetByHandle(ctx context.Context, handle string) (*user.User, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	ExistsByHandle(ctx context.Context, handle string) (bool, error)
	// OwnersOf returns the owner of each account id, keyed by account id.
	OwnersOf(ctx context.Context, accountIDs []uuid.UUID) (map[uuid.UUID]*user.User, error)
}

// AccountRepository defines data access for balances. Only the ledger engine
// calls GetForUpdate and UpdateBalance.
type AccountRepository interface {
	Create(ctx context.Context, a *account.Account) error
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*account.Account, error)
	// GetForUpdate reads the row and holds its lock until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error)
	UpdateBalance(ctx context.Context, a *account.Account) error
	// TotalBalance sums every balance; used by conservation checks.
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// TransactionRepository is append-only.
type TransactionRepository interface {
	Create(ctx context.Context, tx *account.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error)
	ListBySender(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error)
	ListByReceiver(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error)
	Count(ctx context.Context) (int64, error)
}

// MoneyRequestRepository defines data access for money requests.
type MoneyRequestRepository interface {
	Create(ctx context.Context, r *moneyrequest.MoneyRequest) error
	Get(ctx context.Context, id uuid.UUID) (*moneyrequest.MoneyRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*moneyrequest.MoneyRequest, error)
	// UpdateStatus persists r.Status only if the stored row is still pending.
	// It returns moneyrequest.ErrAlreadyResolved when no row matched.
	UpdateStatus(ctx context.Context, r *moneyrequest.MoneyRequest) error
	ListByRequester(ctx context.Context, accountID uuid.UUID) ([]*moneyrequest.MoneyRequest, error)
	ListByRequestee(ctx context.Context, accountID uuid.UUID) ([]*moneyrequest.MoneyRequest, error)
}

// OTPStore persists one-time codes. It lives outside the unit of work because
// OTP state never has to commit together with ledger state.
type OTPStore interface {
	// Replace deletes every earlier code for o.Phone and stores o.
	Replace(ctx context.Context, o *otp.OTP) error
	// Latest returns the most recent code for phone or otp.ErrOTPNotFound.
	Latest(ctx context.Context, phone string) (*otp.OTP, error)
	Update(ctx context.Context, o *otp.OTP) error
}
