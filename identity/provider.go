package identity

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the provider could not be reached or is not
// configured.
var ErrUnavailable = errors.New("identity provider unavailable")

// Principal is an authenticated identity as reported by the provider.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
	IDToken     string
}

// Provider is the remote identity capability.
//
// Subscribe registers fn for session-change notifications. fn receives nil
// when the provider session ends. The returned function unsubscribes and is
// safe to call more than once.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	SignUp(ctx context.Context, email, password string) (*Principal, error)
	UpdateDisplayName(ctx context.Context, p *Principal, name string) error
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	Current(ctx context.Context) (*Principal, error)
	Subscribe(fn func(*Principal)) (unsubscribe func())
}

// PasswordVerifier is implemented by providers that can re-authenticate an
// account without changing the current session.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, email, password string) error
}
