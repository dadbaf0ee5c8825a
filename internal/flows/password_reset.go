package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/identity"
)

// Password reset outcome messages.
const (
	MsgResetSent         = "Password reset email sent!"
	MsgResetUnconfigured = "Password reset requested (identity provider not configured)"
	MsgResetRequested    = "Password reset requested"
)

// RunResetPassword asks the provider to send a reset email. It never fails;
// the returned message tells the caller what happened.
func RunResetPassword(ctx context.Context, email string, deps SessionDeps) string {
	deps = deps.withDefaults()
	deps.MetricInc(deps.Metrics.PasswordResetRequest)

	msg := MsgResetSent
	var err error
	if deps.Provider == nil {
		err = identity.ErrUnavailable
	} else {
		err = callProviderErr(ctx, deps.CallTimeout, deps.ObserveProvider, func(ctx context.Context) error {
			return deps.Provider.SendPasswordReset(ctx, email)
		})
	}

	switch {
	case err == nil:
	case identity.Classify(err) == identity.ClassUnavailable:
		msg = MsgResetUnconfigured
		deps.MetricInc(deps.Metrics.PasswordResetUnconfigured)
		deps.Logger.Warn("password reset not sent; identity provider unavailable", zap.Error(err))
	default:
		msg = MsgResetRequested
		deps.Logger.Warn("password reset not sent", zap.Error(err))
	}

	deps.EmitAudit(ctx, deps.Events.PasswordReset, err == nil, "", email, err, func() map[string]string {
		return map[string]string{"message": msg}
	})
	return msg
}
