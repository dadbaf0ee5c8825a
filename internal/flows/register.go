package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/session"
)

// RunRegister creates an account through the provider, sets its display
// name, and falls back to a local session when the provider is unavailable.
// A failed display-name update after a successful sign-up is logged and the
// session keeps the requested name.
func RunRegister(ctx context.Context, email, password, name string, deps SessionDeps) (*session.Session, error) {
	deps = deps.withDefaults()
	if deps.State == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(err error) (*session.Session, error) {
		deps.MetricInc(deps.Metrics.RegisterFailure)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", email, err, nil)
		return nil, err
	}

	name = deps.SanitizeName(name)
	if email == "" || password == "" {
		return fail(deps.Errors.Validation(msgFillAllFields))
	}

	outcome := attemptOutcome{fallback: true}
	if deps.Provider != nil {
		pr, err := callProvider(ctx, deps.CallTimeout, deps.ObserveProvider, func(ctx context.Context) (*identity.Principal, error) {
			return deps.Provider.SignUp(ctx, email, password)
		})
		outcome = classifyAttempt(ctx, pr, err, deps)
	}
	if outcome.err != nil {
		return fail(outcome.err)
	}

	var rec *session.Session
	if outcome.fallback {
		rec = localSession(email, name, deps)
	} else {
		pr := outcome.principal
		if name != "" {
			err := callProviderErr(ctx, deps.CallTimeout, deps.ObserveProvider, func(ctx context.Context) error {
				return deps.Provider.UpdateDisplayName(ctx, pr, name)
			})
			if err != nil {
				deps.Logger.Warn("failed to set display name after sign-up",
					zap.String("uid", pr.UID),
					zap.Error(err),
				)
			}
		}
		rec = sessionFromPrincipal(pr, email, deps.Now())
		if name != "" {
			rec.DisplayName = name
		}
	}

	if err := deps.State.Establish(ctx, rec); err != nil {
		return fail(deps.Errors.Persistence(err))
	}
	if outcome.fallback {
		deps.MetricInc(deps.Metrics.RegisterFallback)
		rememberLocal(ctx, email, password, deps)
	}

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.RegisterSuccess, true, rec.ID, rec.Email, nil, func() map[string]string {
		return map[string]string{"provider": string(rec.Provider)}
	})
	return rec.Clone(), nil
}
