// Package money parses and formats rupee amounts. Amounts are exact decimals
// with at most two fractional digits and never pass through float64.
package money

import (
	"fmt"
	"strings"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits an amount may carry (paise).
const Scale = 2

// Symbol prefixes amounts in user-facing messages.
const Symbol = "₹"

// MaxAmount bounds any single amount. Balances are stored as NUMERIC(20,2),
// which holds 18 integer digits; the bound leaves room for balances to grow
// past any one amount.
var MaxAmount = decimal.New(1, 15)

var (
	// ErrInvalidAmount is returned when an amount is not a decimal string.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be a decimal string", domain.ErrInvalidInput)
	// ErrAmountPrecision is returned when an amount has more than two fractional digits.
	ErrAmountPrecision = fmt.Errorf("%w: amount must have at most 2 decimal places", domain.ErrInvalidInput)
	// ErrNonPositiveAmount is returned when an amount is zero or negative.
	ErrNonPositiveAmount = fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	// ErrAmountTooLarge is returned for amounts above MaxAmount.
	ErrAmountTooLarge = fmt.Errorf("%w: amount is too large", domain.ErrInvalidInput)
)

// Parse converts a decimal string such as "300" or "12.50" into an exact amount.
// Sign is not checked; use ParsePositive for transfer amounts.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.Equal(d.Truncate(Scale)) {
		return decimal.Zero, ErrAmountPrecision
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, ErrAmountTooLarge
	}
	return d, nil
}

// ParsePositive parses s and requires a strictly positive result.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := RequirePositive(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// RequirePositive validates an amount that was not obtained through Parse.
func RequirePositive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !d.Equal(d.Truncate(Scale)) {
		return ErrAmountPrecision
	}
	if d.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// Format renders d with exactly two fractional digits, e.g. "700.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// Display renders d for messages, e.g. "₹300" or "₹12.50".
func Display(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return Symbol + d.Truncate(0).String()
	}
	return Symbol + Format(d)
}
