// Package metrics defines the business counters services report.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recorder receives business events worth counting. Implementations must be
// safe for concurrent use.
type Recorder interface {
	TransferSucceeded(amount decimal.Decimal, took time.Duration)
	TransferFailed(reason string)
	MoneyRequest(status string)
	OTPIssued()
	CommandDispatched(intent, status string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) TransferSucceeded(decimal.Decimal, time.Duration) {}
func (Nop) TransferFailed(string)                            {}
func (Nop) MoneyRequest(string)                              {}
func (Nop) OTPIssued()                                       {}
func (Nop) CommandDispatched(string, string)                 {}

var _ Recorder = Nop{}
