// Package errcode maps domain errors to stable machine codes and
// user-facing messages.
package errcode

import (
	"errors"
	"strings"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/domain/otp"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/lock"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/amirasaad/voicepay/pkg/nlu"
	"github.com/amirasaad/voicepay/pkg/service/auth"
)

const (
	// Internal is the code of any error not in the table.
	Internal = "INTERNAL_ERROR"
	// LockTimeout is the code when an account lock could not be taken in time.
	LockTimeout = "LOCK_TIMEOUT"
)

// InternalMessage replaces the text of uncategorized errors.
const InternalMessage = "something went wrong, please try again"

type entry struct {
	err  error
	code string
}

// Specific sentinels first; the bare categories are the fallbacks.
var table = []entry{
	{user.ErrNameTaken, "NAME_TAKEN"},
	{account.ErrDuplicateHandle, "NAME_TAKEN"},
	{user.ErrUserExists, "USER_EXISTS"},
	{account.ErrDuplicatePhone, "USER_EXISTS"},
	{user.ErrUserNotFound, "USER_NOT_FOUND"},
	{user.ErrInvalidName, "INVALID_NAME"},
	{user.ErrInvalidPhone, "INVALID_PHONE"},
	{account.ErrAccountNotFound, "ACCOUNT_NOT_FOUND"},
	{account.ErrTransactionNotFound, "TRANSACTION_NOT_FOUND"},
	{account.ErrSameAccount, "SAME_ACCOUNT"},
	{money.ErrInvalidAmount, "INVALID_AMOUNT"},
	{money.ErrAmountPrecision, "AMOUNT_PRECISION"},
	{money.ErrNonPositiveAmount, "NON_POSITIVE_AMOUNT"},
	{money.ErrAmountTooLarge, "AMOUNT_TOO_LARGE"},
	{moneyrequest.ErrRequestNotFound, "REQUEST_NOT_FOUND"},
	{moneyrequest.ErrAlreadyResolved, "ALREADY_RESOLVED"},
	{moneyrequest.ErrNotRequester, "NOT_REQUESTER"},
	{moneyrequest.ErrNotRequestee, "NOT_REQUESTEE"},
	{moneyrequest.ErrSelfRequest, "SELF_REQUEST"},
	{moneyrequest.ErrInvalidStatus, "INVALID_STATUS"},
	{moneyrequest.ErrMessageTooLong, "MESSAGE_TOO_LONG"},
	{otp.ErrOTPNotFound, "OTP_NOT_FOUND"},
	{otp.ErrOTPExpired, "OTP_EXPIRED"},
	{otp.ErrOTPMismatch, "OTP_MISMATCH"},
	{otp.ErrOTPNotVerified, "OTP_NOT_VERIFIED"},
	{otp.ErrOTPConsumed, "OTP_CONSUMED"},
	{otp.ErrOTPLocked, "OTP_LOCKED"},
	{auth.ErrUnauthenticated, "UNAUTHENTICATED"},
	{nlu.ErrEmptyCommand, "EMPTY_COMMAND"},
	{nlu.ErrNeedPhoneOrHandle, "NEED_PHONE_OR_HANDLE"},
	{nlu.ErrMissingAmount, "MISSING_AMOUNT"},
	{domain.ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{domain.ErrNotFound, "NOT_FOUND"},
	{domain.ErrConflict, "CONFLICT"},
	{domain.ErrInvalidInput, "INVALID_INPUT"},
	{domain.ErrUnauthorized, "UNAUTHORIZED"},
	{lock.ErrLockTimeout, LockTimeout},
}

func lookup(err error) (entry, bool) {
	for _, e := range table {
		if errors.Is(err, e.err) {
			return e, true
		}
	}
	return entry{}, false
}

// Code returns the machine code for err, or Internal.
func Code(err error) string {
	if e, ok := lookup(err); ok {
		return e.code
	}
	return Internal
}

// Message returns text safe to show a user: the sentinel's own description
// without its category prefix. Unknown errors get InternalMessage.
func Message(err error) string {
	e, ok := lookup(err)
	if !ok {
		return InternalMessage
	}
	if e.err == lock.ErrLockTimeout {
		return "the account is busy, please try again"
	}
	msg := e.err.Error()
	if c := domain.Category(e.err); c != nil && c != e.err {
		msg = strings.TrimPrefix(msg, c.Error()+": ")
	}
	return msg
}

// Known reports whether err maps to a code other than Internal.
func Known(err error) bool {
	_, ok := lookup(err)
	return ok
}
