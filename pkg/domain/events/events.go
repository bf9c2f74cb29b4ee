package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnknownEventType is returned by Decode for names it does not know.
var ErrUnknownEventType = errors.New("unknown event type")

// Event is anything published on the event bus.
type Event interface {
	Type() string
}

// EventType names an event on the wire.
type EventType string

// Event type constants
const (
	EventTypeUserSignedUp         EventType = "User.SignedUp"
	EventTypeTransferCompleted    EventType = "Transfer.Completed"
	EventTypeMoneyRequestCreated  EventType = "MoneyRequest.Created"
	EventTypeMoneyRequestResolved EventType = "MoneyRequest.Resolved"
)

// UserSignedUp is emitted after a user and their account are persisted.
type UserSignedUp struct {
	UserID     uuid.UUID `json:"user_id"`
	AccountID  uuid.UUID `json:"account_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Handle     string    `json:"handle"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TransferCompleted is emitted after a transfer commits.
type TransferCompleted struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	SenderID      uuid.UUID       `json:"sender_account_id"`
	ReceiverID    uuid.UUID       `json:"receiver_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	RequestID     *uuid.UUID      `json:"request_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// MoneyRequestCreated is emitted when a request enters pending.
type MoneyRequestCreated struct {
	RequestID   uuid.UUID       `json:"request_id"`
	RequesterID uuid.UUID       `json:"requester_account_id"`
	RequesteeID uuid.UUID       `json:"requestee_account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Message     string          `json:"message"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// MoneyRequestResolved is emitted when a request leaves pending.
type MoneyRequestResolved struct {
	RequestID   uuid.UUID       `json:"request_id"`
	RequesterID uuid.UUID       `json:"requester_account_id"`
	RequesteeID uuid.UUID       `json:"requestee_account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (e UserSignedUp) Type() string         { return string(EventTypeUserSignedUp) }
func (e TransferCompleted) Type() string    { return string(EventTypeTransferCompleted) }
func (e MoneyRequestCreated) Type() string  { return string(EventTypeMoneyRequestCreated) }
func (e MoneyRequestResolved) Type() string { return string(EventTypeMoneyRequestResolved) }

// Decode rebuilds an event from its wire name and JSON payload. Stream
// consumers use it so handlers see the same value types the memory bus sends.
func Decode(eventType string, payload []byte) (Event, error) {
	switch EventType(eventType) {
	case EventTypeUserSignedUp:
		return decodeAs[UserSignedUp](payload)
	case EventTypeTransferCompleted:
		return decodeAs[TransferCompleted](payload)
	case EventTypeMoneyRequestCreated:
		return decodeAs[MoneyRequestCreated](payload)
	case EventTypeMoneyRequestResolved:
		return decodeAs[MoneyRequestResolved](payload)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
}

func decodeAs[T Event](payload []byte) (Event, error) {
	var e T
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// Types lists every event type the system emits.
func Types() []EventType {
	return []EventType{
		EventTypeUserSignedUp,
		EventTypeTransferCompleted,
		EventTypeMoneyRequestCreated,
		EventTypeMoneyRequestResolved,
	}
}
