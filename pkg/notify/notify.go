// Package notify defines outbound messages to phone numbers.
package notify

import "context"

// Kind classifies a message so delivery backends can pick a template.
type Kind string

const (
	KindOTP            Kind = "otp"
	KindPaymentSent    Kind = "payment_sent"
	KindPaymentRecv    Kind = "payment_received"
	KindRequestCreated Kind = "request_created"
	KindRequestUpdate  Kind = "request_resolved"
	KindWelcome        Kind = "welcome"
)

// Message is one text addressed to a phone.
type Message struct {
	Phone string `json:"phone"`
	Kind  Kind   `json:"kind"`
	Body  string `json:"body"`
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
