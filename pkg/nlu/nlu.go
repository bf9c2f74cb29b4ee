// Package nlu turns a spoken or typed command into an intent and the
// entities the dispatcher needs.
package nlu

import (
	"context"
	"fmt"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/shopspring/decimal"
)

type Intent string

const (
	IntentTransfer Intent = "transfer_money"
	IntentRequest  Intent = "request_money"
	IntentBalance  Intent = "check_balance"
	IntentOther    Intent = "other"
)

// ErrEmptyCommand is returned for blank input.
var ErrEmptyCommand = fmt.Errorf("%w: command text is empty", domain.ErrInvalidInput)

// ParseIntent maps a label to a known intent; unknown labels become IntentOther.
func ParseIntent(label string) Intent {
	switch i := Intent(label); i {
	case IntentTransfer, IntentRequest, IntentBalance:
		return i
	default:
		return IntentOther
	}
}

// Entities are the slots extracted from a command. Zero values mean absent.
type Entities struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	RecipientName string           `json:"recipient_name,omitempty"`
	PhoneNumber   string           `json:"phone_number,omitempty"`
	UPIID         string           `json:"upi_id,omitempty"`
}

// merge fills the empty slots of e from other.
func (e Entities) merge(other Entities) Entities {
	if e.Amount == nil {
		e.Amount = other.Amount
	}
	if e.RecipientName == "" {
		e.RecipientName = other.RecipientName
	}
	if e.PhoneNumber == "" {
		e.PhoneNumber = other.PhoneNumber
	}
	if e.UPIID == "" {
		e.UPIID = other.UPIID
	}
	return e
}

// Classification is what a classifier returns for one text.
type Classification struct {
	Intent     Intent
	Confidence float64
	// Entities a classifier may have extracted itself.
	Entities Entities
}

// Command is a fully interpreted utterance.
type Command struct {
	Text       string   `json:"text"`
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   Entities `json:"entities"`
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// Responder answers small talk.
type Responder interface {
	Respond(ctx context.Context, text string) string
}

var (
	// ErrNeedPhoneOrHandle is returned when a money command names no
	// resolvable recipient.
	ErrNeedPhoneOrHandle = fmt.Errorf("%w: please provide a phone number or UPI ID", domain.ErrInvalidInput)
	// ErrMissingAmount is returned when a money command has no amount.
	ErrMissingAmount = fmt.Errorf("%w: please say the amount", domain.ErrInvalidInput)
)
