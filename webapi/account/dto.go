package account

import (
	"time"

	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/money"
	accountsvc "github.com/amirasaad/voicepay/pkg/service/account"
)

//revive:disable

// TransferByHandleRequest pays a UPI ID. Amount is a decimal string.
type TransferByHandleRequest struct {
	Handle string `json:"handle" validate:"required,min=2,max=64"`
	Amount string `json:"amount" validate:"required,max=20"`
}

// TransferByPhoneRequest pays a phone number.
type TransferByPhoneRequest struct {
	Phone  string `json:"phone" validate:"required,min=10,max=16"`
	Amount string `json:"amount" validate:"required,max=20"`
}

// BalanceDTO is the caller's balance.
type BalanceDTO struct {
	Balance string `json:"balance"`
	Display string `json:"display"`
}

// TransactionDTO is the API response representation of a transaction.
type TransactionDTO struct {
	ID           string `json:"id"`
	Direction    string `json:"direction"`
	Amount       string `json:"amount"`
	Counterparty string `json:"counterparty,omitempty"`
	Name         string `json:"name,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// HistoryDTO splits transactions by direction, newest first.
type HistoryDTO struct {
	Sent     []TransactionDTO `json:"sent"`
	Received []TransactionDTO `json:"received"`
}

const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

func ToTransactionDTO(tx *account.Transaction, direction string, counterparty *user.User) TransactionDTO {
	dto := TransactionDTO{
		ID:        tx.ID.String(),
		Direction: direction,
		Amount:    money.Format(tx.Amount),
		Status:    string(tx.Status),
		CreatedAt: tx.CreatedAt.Format(time.RFC3339),
	}
	if counterparty != nil {
		dto.Counterparty = counterparty.Handle
		dto.Name = counterparty.Name
	}
	return dto
}

func ToHistoryDTO(h *accountsvc.History) HistoryDTO {
	out := HistoryDTO{
		Sent:     make([]TransactionDTO, 0, len(h.Sent)),
		Received: make([]TransactionDTO, 0, len(h.Received)),
	}
	for _, e := range h.Sent {
		out.Sent = append(out.Sent, ToTransactionDTO(e.Transaction, DirectionSent, e.Counterparty))
	}
	for _, e := range h.Received {
		out.Received = append(out.Received, ToTransactionDTO(e.Transaction, DirectionReceived, e.Counterparty))
	}
	return out
}
