package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/session"
)

// callProvider runs fn with the call timeout applied. A panicking provider is
// reported as identity.ErrUnavailable.
func callProvider[T any](ctx context.Context, timeout time.Duration, observe func(time.Duration), fn func(context.Context) (T, error)) (res T, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = zero
			err = fmt.Errorf("%w: provider panic: %v", identity.ErrUnavailable, r)
		}
		if observe != nil {
			observe(time.Since(start))
		}
	}()

	return fn(ctx)
}

// callProviderErr is callProvider for calls without a result value.
func callProviderErr(ctx context.Context, timeout time.Duration, observe func(time.Duration), fn func(context.Context) error) error {
	_, err := callProvider(ctx, timeout, observe, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// sessionFromPrincipal builds a remote record. fallbackEmail is used when the
// provider omits the email.
func sessionFromPrincipal(pr *identity.Principal, fallbackEmail string, now time.Time) *session.Session {
	email := pr.Email
	if email == "" {
		email = fallbackEmail
	}
	return &session.Session{
		ID:            pr.UID,
		DisplayName:   pr.DisplayName,
		Email:         email,
		Authenticated: true,
		Provider:      session.ProviderRemote,
		EstablishedAt: now,
	}
}
