package identity

import (
	"context"
	"errors"
)

// Code is a provider-neutral credential rejection code.
type Code string

const (
	CodeUserNotFound      Code = "user-not-found"
	CodeWrongPassword     Code = "wrong-password"
	CodeInvalidEmail      Code = "invalid-email"
	CodeUserDisabled      Code = "user-disabled"
	CodeTooManyRequests   Code = "too-many-requests"
	CodeNetworkFailed     Code = "network-request-failed"
	CodeInvalidCredential Code = "invalid-credential"
	CodeEmailInUse        Code = "email-already-in-use"
	CodeWeakPassword      Code = "weak-password"
)

var messages = map[Code]string{
	CodeUserNotFound:      "No account found with this email. Please check your email or sign up.",
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeInvalidEmail:      "Please enter a valid email address.",
	CodeUserDisabled:      "This account has been disabled. Please contact support.",
	CodeTooManyRequests:   "Too many failed login attempts. Please try again later.",
	CodeNetworkFailed:     "Network error. Please check your internet connection.",
	CodeInvalidCredential: "Invalid email or password. Please check your credentials.",
	CodeEmailInUse:        "An account with this email already exists. Please sign in instead.",
	CodeWeakPassword:      "Password is too weak. Please choose a stronger password.",
}

// Known reports whether c is a recognised credential code.
func (c Code) Known() bool {
	_, ok := messages[c]
	return ok
}

// Message returns the user-facing text for c, or "" for unknown codes.
func (c Code) Message() string {
	return messages[c]
}

// CredentialError is a provider rejection of the supplied credentials.
type CredentialError struct {
	Code Code
	// Detail carries the raw provider reason, for logs only.
	Detail string
}

func (e *CredentialError) Error() string {
	if msg := e.Code.Message(); msg != "" {
		return msg
	}
	return "identity provider rejected the request: " + string(e.Code)
}

// NewCredentialError returns a CredentialError for code.
func NewCredentialError(code Code, detail string) *CredentialError {
	return &CredentialError{Code: code, Detail: detail}
}

// Class is the result of Classify.
type Class int

const (
	ClassNone Class = iota
	ClassCredential
	ClassUnavailable
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassCredential:
		return "credential"
	default:
		return "unavailable"
	}
}

// Classify sorts a provider error. Only CredentialErrors with a known code are
// ClassCredential; every other non-nil error, including context deadlines, is
// ClassUnavailable.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	var ce *CredentialError
	if errors.As(err, &ce) && ce.Code.Known() {
		return ClassCredential
	}
	return ClassUnavailable
}

// IsTimeout reports whether err came from a context deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
