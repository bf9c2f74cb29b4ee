package request

import (
	"time"

	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/money"
	requestsvc "github.com/amirasaad/voicepay/pkg/service/moneyrequest"
)

// CreateRequest asks To (a UPI ID or phone number) for Amount.
type CreateRequest struct {
	To      string `json:"to" validate:"required,min=2,max=64"`
	Amount  string `json:"amount" validate:"required,max=20"`
	Message string `json:"message" validate:"max=140"`
}

// ResolveRequest moves a pending request to a final status.
type ResolveRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected cancelled"`
}

// MoneyRequestDTO is the API representation of a money request.
type MoneyRequestDTO struct {
	ID           string `json:"id"`
	Amount       string `json:"amount"`
	Message      string `json:"message,omitempty"`
	Status       string `json:"status"`
	Counterparty string `json:"counterparty,omitempty"`
	Name         string `json:"name,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ListingDTO splits requests into those the caller sent and received.
type ListingDTO struct {
	Sent     []MoneyRequestDTO `json:"sent"`
	Received []MoneyRequestDTO `json:"received"`
}

// ResolvedDTO is a resolved request plus the payment an approval made.
type ResolvedDTO struct {
	Request       MoneyRequestDTO `json:"request"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

func ToMoneyRequestDTO(r *moneyrequest.MoneyRequest, counterparty *user.User) MoneyRequestDTO {
	dto := MoneyRequestDTO{
		ID:        r.ID.String(),
		Amount:    money.Format(r.Amount),
		Message:   r.Message,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
	if counterparty != nil {
		dto.Counterparty = counterparty.Handle
		dto.Name = counterparty.Name
	}
	return dto
}

func toEntries(entries []requestsvc.Entry) []MoneyRequestDTO {
	out := make([]MoneyRequestDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToMoneyRequestDTO(e.Request, e.Counterparty))
	}
	return out
}

func ToListingDTO(l *requestsvc.Listing) ListingDTO {
	return ListingDTO{Sent: toEntries(l.Sent), Received: toEntries(l.Received)}
}
