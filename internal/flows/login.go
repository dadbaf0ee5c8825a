package flows

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/session"
)

const msgFillAllFields = "Please fill in all fields"

// attemptOutcome is the classified result of a sign-in or sign-up call.
type attemptOutcome struct {
	principal *identity.Principal
	fallback  bool
	err       error
}

// classifyAttempt decides between the remote path, a local fallback and a
// surfaced error. Caller cancellation is surfaced unchanged.
func classifyAttempt(ctx context.Context, pr *identity.Principal, err error, deps SessionDeps) attemptOutcome {
	if err == nil && pr != nil {
		return attemptOutcome{principal: pr}
	}
	if err == nil {
		err = identity.ErrUnavailable
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return attemptOutcome{err: ctxErr}
	}

	if identity.Classify(err) == identity.ClassCredential {
		var ce *identity.CredentialError
		errors.As(err, &ce)
		return attemptOutcome{err: deps.Errors.Credential(ce)}
	}

	deps.Logger.Warn("identity provider unavailable; falling back to local session", zap.Error(err))
	return attemptOutcome{fallback: true}
}

// localSession builds a record authenticated without the provider.
func localSession(email, name string, deps SessionDeps) *session.Session {
	return &session.Session{
		DisplayName:   name,
		Email:         email,
		Authenticated: true,
		Provider:      session.ProviderLocal,
		EstablishedAt: deps.Now(),
	}
}

// rememberLocal stores a credential for a fallback session. Failures only log.
func rememberLocal(ctx context.Context, email, password string, deps SessionDeps) {
	if deps.Credentials == nil {
		return
	}
	if _, err := deps.Credentials.Remember(ctx, email, password); err != nil {
		deps.Logger.Warn("failed to remember local credential", zap.Error(err))
	}
}

// RunLogin signs in through the provider and falls back to a local session
// when the provider is unavailable. Credential rejections are returned
// without fallback. The resulting record is persisted and made current.
func RunLogin(ctx context.Context, email, password string, deps SessionDeps) (*session.Session, error) {
	deps = deps.withDefaults()
	if deps.State == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(err error) (*session.Session, error) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", email, err, nil)
		return nil, err
	}

	if email == "" || password == "" {
		return fail(deps.Errors.Validation(msgFillAllFields))
	}

	outcome := attemptOutcome{fallback: true}
	if deps.Provider != nil {
		pr, err := callProvider(ctx, deps.CallTimeout, deps.ObserveProvider, func(ctx context.Context) (*identity.Principal, error) {
			return deps.Provider.SignIn(ctx, email, password)
		})
		outcome = classifyAttempt(ctx, pr, err, deps)
	}
	if outcome.err != nil {
		return fail(outcome.err)
	}

	var rec *session.Session
	if outcome.fallback {
		rec = localSession(email, "", deps)
	} else {
		rec = sessionFromPrincipal(outcome.principal, email, deps.Now())
	}

	if err := deps.State.Establish(ctx, rec); err != nil {
		return fail(deps.Errors.Persistence(err))
	}
	if outcome.fallback {
		deps.MetricInc(deps.Metrics.LoginFallback)
		rememberLocal(ctx, email, password, deps)
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, rec.ID, rec.Email, nil, func() map[string]string {
		return map[string]string{"provider": string(rec.Provider)}
	})
	return rec.Clone(), nil
}
