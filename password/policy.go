package password

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

var (
	// ErrMismatch is returned when the confirmation differs from the new password.
	ErrMismatch = errors.New("New passwords do not match")
	// ErrTooShort is returned when the new password is shorter than MinLength.
	ErrTooShort = errors.New("password too short")
)

// DefaultMinLength is the minimum password length in code points.
const DefaultMinLength = 6

// Policy validates proposed passwords.
type Policy struct {
	MinLength int
}

// DefaultPolicy returns a Policy with DefaultMinLength.
func DefaultPolicy() Policy {
	return Policy{MinLength: DefaultMinLength}
}

// ValidateChange checks that confirm equals next and that next is long enough,
// in that order.
func (p Policy) ValidateChange(next, confirm string) error {
	if next != confirm {
		return ErrMismatch
	}
	if utf8.RuneCountInString(next) < p.minLength() {
		return ErrTooShort
	}
	return nil
}

// TooShortMessage renders the user-facing length rule.
func (p Policy) TooShortMessage() string {
	return "Password must be at least " + strconv.Itoa(p.minLength()) + " characters long"
}

func (p Policy) minLength() int {
	if p.MinLength <= 0 {
		return DefaultMinLength
	}
	return p.MinLength
}
