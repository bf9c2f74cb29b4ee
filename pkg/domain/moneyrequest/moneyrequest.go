// Package moneyrequest models a payee-initiated request for payment and the
// rules for resolving it.
package moneyrequest

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a money request. Pending is the only non-terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// MaxMessageLength bounds the optional note attached to a request.
const MaxMessageLength = 255

var (
	// ErrRequestNotFound is returned when the request id is unknown.
	ErrRequestNotFound = fmt.Errorf("%w: money request not found", domain.ErrNotFound)
	// ErrAlreadyResolved is returned for any transition out of a terminal state.
	ErrAlreadyResolved = fmt.Errorf("%w: money request already resolved", domain.ErrConflict)
	// ErrNotRequester is returned when someone other than the requester cancels.
	ErrNotRequester = fmt.Errorf("%w: only the requester can cancel a request", domain.ErrUnauthorized)
	// ErrNotRequestee is returned when someone other than the requestee approves or rejects.
	ErrNotRequestee = fmt.Errorf("%w: only the requestee can approve or reject a request", domain.ErrUnauthorized)
	// ErrSelfRequest is returned when requester and requestee are the same account.
	ErrSelfRequest = fmt.Errorf("%w: cannot request money from yourself", domain.ErrInvalidInput)
	// ErrInvalidStatus is returned for an unknown or non-terminal target status.
	ErrInvalidStatus = fmt.Errorf("%w: status must be approved, rejected or cancelled", domain.ErrInvalidInput)
	// ErrMessageTooLong is returned when the note exceeds MaxMessageLength.
	ErrMessageTooLong = fmt.Errorf("%w: message too long", domain.ErrInvalidInput)
)

// MoneyRequest asks the requestee to pay Amount to the requester.
// Approval moves funds requestee -> requester.
type MoneyRequest struct {
	ID          uuid.UUID
	RequesterID uuid.UUID
	RequesteeID uuid.UUID
	Amount      decimal.Decimal
	Message     string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New returns a pending request. An empty message gets the default
// "Payment request for ₹<amount>".
func New(requesterID, requesteeID uuid.UUID, amount decimal.Decimal, message string) (*MoneyRequest, error) {
	if requesterID == requesteeID {
		return nil, ErrSelfRequest
	}
	if err := money.RequirePositive(amount); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultMessage(amount)
	}
	if len(message) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	now := time.Now().UTC()
	return &MoneyRequest{
		ID:          uuid.New(),
		RequesterID: requesterID,
		RequesteeID: requesteeID,
		Amount:      amount,
		Message:     message,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// DefaultMessage is the note used when the requester gives none.
func DefaultMessage(amount decimal.Decimal) string {
	return "Payment request for " + money.Display(amount)
}

// ParseStatus converts user input into a target status for a transition.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusApproved, StatusRejected, StatusCancelled:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsTerminal reports whether s can no longer change.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// CanTransition checks whether actor may move r to target. The order of the
// checks matters: a resolved request reports ErrAlreadyResolved even to a
// wrong actor.
func (r *MoneyRequest) CanTransition(actorID uuid.UUID, target Status) error {
	if target != StatusApproved && target != StatusRejected && target != StatusCancelled {
		return ErrInvalidStatus
	}
	if r.Status.IsTerminal() {
		return ErrAlreadyResolved
	}
	switch target {
	case StatusCancelled:
		if actorID != r.RequesterID {
			return ErrNotRequester
		}
	default:
		if actorID != r.RequesteeID {
			return ErrNotRequestee
		}
	}
	return nil
}

// Resolve applies a transition already validated by CanTransition.
func (r *MoneyRequest) Resolve(actorID uuid.UUID, target Status, at time.Time) error {
	if err := r.CanTransition(actorID, target); err != nil {
		return err
	}
	r.Status = target
	r.UpdatedAt = at
	return nil
}
