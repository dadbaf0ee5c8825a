package flows

import (
	"context"

	"go.uber.org/zap"
)

// RunLogout signs out of the provider on a best-effort basis and then clears
// the cached and in-memory session. Provider failures are logged only; a
// cache failure is returned and leaves the session in place.
func RunLogout(ctx context.Context, deps SessionDeps) error {
	deps = deps.withDefaults()
	if deps.State == nil {
		return deps.Errors.EngineNotReady
	}

	prev := deps.State.Current()

	if deps.Provider != nil {
		err := callProviderErr(ctx, deps.CallTimeout, deps.ObserveProvider, deps.Provider.SignOut)
		if err != nil {
			deps.MetricInc(deps.Metrics.LogoutRemoteFailure)
			deps.Logger.Warn("identity provider sign-out failed; clearing local session", zap.Error(err))
		}
	}

	var userID, email string
	if prev != nil {
		userID, email = prev.ID, prev.Email
	}

	if err := deps.State.Clear(context.WithoutCancel(ctx)); err != nil {
		err = deps.Errors.Persistence(err)
		deps.EmitAudit(ctx, deps.Events.Logout, false, userID, email, err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.Logout, true, userID, email, nil, nil)
	return nil
}
