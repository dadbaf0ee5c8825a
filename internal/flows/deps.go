package flows

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/identity"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Session SessionDeps
	Account AccountDeps
}

// CredentialMemory remembers a password hash for sessions established
// without the provider.
type CredentialMemory interface {
	Remember(ctx context.Context, email, password string) (bool, error)
}

// SessionMetrics carries metric IDs used by the session lifecycle flows.
type SessionMetrics struct {
	LoginSuccess              int
	LoginFailure              int
	LoginFallback             int
	RegisterSuccess           int
	RegisterFailure           int
	RegisterFallback          int
	Logout                    int
	LogoutRemoteFailure       int
	PasswordResetRequest      int
	PasswordResetUnconfigured int
}

// SessionEvents carries audit event names used by the session lifecycle flows.
type SessionEvents struct {
	LoginSuccess    string
	LoginFailure    string
	RegisterSuccess string
	RegisterFailure string
	Logout          string
	PasswordReset   string
}

// SessionErrors carries host-level errors used by the session lifecycle flows.
type SessionErrors struct {
	EngineNotReady error
	Validation     func(message string) error
	Credential     func(*identity.CredentialError) error
	Persistence    func(error) error
}

// SessionDeps captures login, register, logout and reset dependencies. A nil
// Provider means the identity provider is not configured.
type SessionDeps struct {
	Provider     identity.Provider
	State        *SessionState
	Credentials  CredentialMemory
	CallTimeout  time.Duration
	SanitizeName func(string) string

	Now             func() time.Time
	Logger          *zap.Logger
	MetricInc       func(int)
	ObserveProvider func(time.Duration)
	EmitAudit       func(ctx context.Context, event string, success bool, userID, email string, err error, meta func() map[string]string)

	Metrics SessionMetrics
	Events  SessionEvents
	Errors  SessionErrors
}

func (d SessionDeps) withDefaults() SessionDeps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if d.SanitizeName == nil {
		d.SanitizeName = func(s string) string { return s }
	}
	if d.Errors.Validation == nil {
		d.Errors.Validation = func(msg string) error { return errors.New(msg) }
	}
	if d.Errors.Credential == nil {
		d.Errors.Credential = func(ce *identity.CredentialError) error { return ce }
	}
	if d.Errors.Persistence == nil {
		d.Errors.Persistence = func(err error) error { return err }
	}
	return d
}
