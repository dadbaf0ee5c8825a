package recipeauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/ledger"
)

var (
	// ErrValidation is an exported constant or variable used by the account engine.
	ErrValidation = errors.New("validation failed")
	// ErrQuotaExceeded is an exported constant or variable used by the account engine.
	ErrQuotaExceeded = errors.New("change quota exceeded")
	// ErrCredential reports that the identity provider rejected the credentials.
	ErrCredential = errors.New("credentials rejected")
	// ErrProviderUnavailable reports that the identity provider is absent or unreachable.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrPersistence is an exported constant or variable used by the account engine.
	ErrPersistence = errors.New("local persistence failed")
	// ErrNoSession is returned by account updates when nobody is signed in.
	ErrNoSession = errors.New("no current session")
	// ErrEngineNotReady is an exported constant or variable used by the account engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError is a user-correctable input problem. Message is shown to
// the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// QuotaExceededError reports a sensitive change refused by the ledger.
type QuotaExceededError struct {
	Type   ledger.ChangeType
	Limit  int
	Window time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("You can only change your %s %d times per %s. You have made %d changes already.",
		e.Type, e.Limit, ledger.FormatWindow(e.Window), e.Limit)
}

// Is matches ErrQuotaExceeded.
func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// Policy renders the quota rule, e.g. "3 per 14 days".
func (e *QuotaExceededError) Policy() string {
	return fmt.Sprintf("%d per %s", e.Limit, ledger.FormatWindow(e.Window))
}

// CredentialError wraps a provider credential rejection. Its message is the
// user-facing text for the provider code.
type CredentialError struct {
	Cause *identity.CredentialError
}

func (e *CredentialError) Error() string { return e.Cause.Error() }

// Code returns the provider error code.
func (e *CredentialError) Code() identity.Code { return e.Cause.Code }

// Is matches ErrCredential.
func (e *CredentialError) Is(target error) bool { return target == ErrCredential }

func (e *CredentialError) Unwrap() error { return e.Cause }

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func newCredentialError(ce *identity.CredentialError) error {
	if ce == nil {
		ce = identity.NewCredentialError(identity.CodeInvalidCredential, "")
	}
	return &CredentialError{Cause: ce}
}

func wrapPersistence(err error) error {
	if err == nil || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

// userMessage renders err for display. Validation, quota and credential
// errors carry their own text; everything else gets a generic message.
func userMessage(err error) string {
	var (
		ve *ValidationError
		qe *QuotaExceededError
		ce *CredentialError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &qe):
		return qe.Error()
	case errors.As(err, &ce):
		return ce.Error()
	case errors.Is(err, ErrNoSession):
		return "Please sign in to update your account"
	case errors.Is(err, ErrPersistence):
		return "Could not save your changes. Please try again."
	case errors.Is(err, ErrEngineNotReady):
		return "Account service is not ready"
	default:
		return "Something went wrong. Please try again."
	}
}
