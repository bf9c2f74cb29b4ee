package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is the users table. Phone and handle carry named unique indexes so
// violations can be told apart; name uniqueness follows from handle
// uniqueness because the handle is derived from the name.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Phone     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_users_phone"`
	Handle    string    `gorm:"type:varchar(120);not null;uniqueIndex:idx_users_handle"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

// Account is the accounts table, one row per user.
type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;check:chk_accounts_balance_non_negative,balance >= 0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string { return "accounts" }

// Transaction is the append-only transactions table.
type Transaction struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SenderID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_sender_id"`
	ReceiverID uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_receiver_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Status     string          `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time
}

func (Transaction) TableName() string { return "transactions" }

// MoneyRequest is the money_requests table.
type MoneyRequest struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RequesterID uuid.UUID       `gorm:"type:uuid;not null;index:idx_money_requests_requester_id"`
	RequesteeID uuid.UUID       `gorm:"type:uuid;not null;index:idx_money_requests_requestee_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Message     string          `gorm:"type:varchar(255)"`
	Status      string          `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (MoneyRequest) TableName() string { return "money_requests" }

// OTP is the otps table.
type OTP struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Phone      string    `gorm:"type:varchar(20);not null;index:idx_otps_phone"`
	CodeHash   string    `gorm:"type:varchar(100);not null"`
	IssuedAt   time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	VerifiedAt *time.Time
	ConsumedAt *time.Time
	Attempts   int `gorm:"not null;default:0"`
}

func (OTP) TableName() string { return "otps" }

// Models lists every table, in dependency order, for AutoMigrate in tests.
func Models() []any {
	return []any{&User{}, &Account{}, &Transaction{}, &MoneyRequest{}, &OTP{}}
}
