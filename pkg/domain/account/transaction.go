package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a stored transaction.
type TransactionStatus string

// StatusCompleted is the only status the ledger ever persists; failed
// attempts leave no row behind.
const StatusCompleted TransactionStatus = "completed"

// Transaction is an immutable record of one completed fund movement.
type Transaction struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Amount     decimal.Decimal
	Status     TransactionStatus
	CreatedAt  time.Time
}

// NewTransaction records a completed movement of amount from sender to receiver.
func NewTransaction(senderID, receiverID uuid.UUID, amount decimal.Decimal, at time.Time) *Transaction {
	return &Transaction{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     StatusCompleted,
		CreatedAt:  at,
	}
}

// NewTransactionFromData hydrates a Transaction from storage.
func NewTransactionFromData(
	id, senderID, receiverID uuid.UUID,
	amount decimal.Decimal,
	status TransactionStatus,
	created time.Time,
) *Transaction {
	return &Transaction{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     status,
		CreatedAt:  created,
	}
}
