package domain

import "errors"

// Error categories. Every business error returned by the core wraps exactly one
// of these so callers can branch with errors.Is without knowing the specific cause.
var (
	// ErrNotFound is returned when a user, account or money request is absent.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when a uniqueness rule or a state rule is violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientBalance is returned when the payer cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUnauthorized is returned when the actor may not perform the action.
	ErrUnauthorized = errors.New("unauthorized")
)

// Category returns the category sentinel err belongs to, or nil for unexpected errors.
func Category(err error) error {
	for _, c := range []error{
		ErrNotFound,
		ErrConflict,
		ErrInvalidInput,
		ErrInsufficientBalance,
		ErrUnauthorized,
	} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
