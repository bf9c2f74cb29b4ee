package user

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/google/uuid"
)

const (
	// HandleSuffix is appended to the slugged display name to form a UPI handle.
	HandleSuffix = "@upi"
	// CountryCode is the canonical phone prefix.
	CountryCode = "+91"
	phoneDigits = 10
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = fmt.Errorf("%w: user not found", domain.ErrNotFound)
	// ErrUserExists is returned when a user already owns the phone number.
	ErrUserExists = fmt.Errorf("%w: user already exists", domain.ErrConflict)
	// ErrNameTaken is returned when the handle derived from a name is already in use.
	ErrNameTaken = fmt.Errorf("%w: UPI name already taken", domain.ErrConflict)
	// ErrInvalidName is returned when a name cannot produce a usable handle.
	ErrInvalidName = fmt.Errorf("%w: name cannot be used as a UPI handle", domain.ErrInvalidInput)
	// ErrInvalidPhone is returned when a phone number cannot be normalized.
	ErrInvalidPhone = fmt.Errorf("%w: malformed phone number", domain.ErrInvalidInput)
)

var handleSlug = regexp.MustCompile(`^[a-z0-9._-]+$`)

// User is the identity behind an account. Phone, name and handle are each unique.
type User struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Handle    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New validates the inputs and returns a user with a normalized phone and derived handle.
func New(name, phone string) (*User, error) {
	name = strings.TrimSpace(name)
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	handle, err := GenerateHandle(name)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Phone:     normalized,
		Handle:    handle,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewFromData hydrates a User from storage without validation.
func NewFromData(id uuid.UUID, name, phone, handle string, created, updated time.Time) *User {
	return &User{
		ID:        id,
		Name:      name,
		Phone:     phone,
		Handle:    handle,
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

// NormalizePhone returns the canonical "+91XXXXXXXXXX" form.
// Accepted inputs: ten digits, digits with a leading 0, 91 or +91, and
// separators such as spaces, dashes and parentheses.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	digits = strings.TrimLeft(digits, "0")
	if len(digits) == phoneDigits+2 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) != phoneDigits {
		return "", ErrInvalidPhone
	}
	return CountryCode + digits, nil
}

// GenerateHandle lowercases name, strips whitespace and appends HandleSuffix.
func GenerateHandle(name string) (string, error) {
	slug := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
	if slug == "" || !handleSlug.MatchString(slug) {
		return "", ErrInvalidName
	}
	return slug + HandleSuffix, nil
}

// IsHandle reports whether s looks like a UPI handle rather than a phone number.
func IsHandle(s string) bool {
	return strings.Contains(s, "@")
}

// NormalizeHandle lowercases a handle typed or spoken by a user, drops
// whitespace and adds HandleSuffix when no domain was given.
func NormalizeHandle(s string) string {
	h := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	if h != "" && !strings.Contains(h, "@") {
		h += HandleSuffix
	}
	return h
}
