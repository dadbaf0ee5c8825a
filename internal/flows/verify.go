package flows

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/session"
)

// LocalPasswordVerifier checks remembered local credentials. known is false
// when nothing is stored for email.
type LocalPasswordVerifier interface {
	Verify(ctx context.Context, email, password string) (known, ok bool, err error)
}

// VerifyDeps captures current-password verification dependencies.
type VerifyDeps struct {
	Provider        identity.Provider
	Local           LocalPasswordVerifier
	CallTimeout     time.Duration
	Logger          *zap.Logger
	ObserveProvider func(time.Duration)
}

// RunVerifyCurrentPassword checks pw against whatever can vouch for current.
// Remote sessions ask the provider when it supports re-authentication; if the
// provider cannot answer, remembered local credentials are consulted. It
// returns PasswordUnchecked when nothing can vouch.
func RunVerifyCurrentPassword(ctx context.Context, current *session.Session, pw string, deps VerifyDeps) (PasswordCheck, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if current == nil {
		return PasswordUnchecked, nil
	}

	if current.IsRemote() && deps.Provider != nil {
		if pv, ok := deps.Provider.(identity.PasswordVerifier); ok {
			err := callProviderErr(ctx, deps.CallTimeout, deps.ObserveProvider, func(ctx context.Context) error {
				return pv.VerifyPassword(ctx, current.Email, pw)
			})
			if err == nil {
				return PasswordMatched, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return PasswordUnchecked, ctxErr
			}

			var ce *identity.CredentialError
			switch {
			case errors.As(err, &ce) && (ce.Code == identity.CodeWrongPassword || ce.Code == identity.CodeInvalidCredential):
				return PasswordMismatched, nil
			case identity.Classify(err) == identity.ClassCredential:
				deps.Logger.Warn("identity provider could not re-authenticate account", zap.Error(err))
				return PasswordUnchecked, nil
			default:
				deps.Logger.Warn("identity provider unavailable for re-authentication", zap.Error(err))
			}
		}
	}

	if deps.Local == nil {
		return PasswordUnchecked, nil
	}
	known, ok, err := deps.Local.Verify(ctx, current.Email, pw)
	if err != nil {
		return PasswordUnchecked, err
	}
	switch {
	case !known:
		return PasswordUnchecked, nil
	case ok:
		return PasswordMatched, nil
	default:
		return PasswordMismatched, nil
	}
}
