// Package lock defines keyed mutual exclusion for ledger critical sections.
package lock

import (
	"context"
	"errors"
	"slices"
)

// ErrLockTimeout is returned when a key could not be acquired in time.
var ErrLockTimeout = errors.New("lock: could not acquire in time")

// Locker acquires exclusive rights on a set of keys.
//
// Implementations acquire keys in ascending order, so two callers asking
// for the same pair in opposite order can never deadlock. The returned
// release function is safe to call once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// Ordered returns keys sorted ascending with duplicates removed.
func Ordered(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// AccountKey names the lock guarding an account balance.
func AccountKey(id string) string { return "account:" + id }

// RequestKey names the lock guarding a money request transition.
func RequestKey(id string) string { return "moneyrequest:" + id }
