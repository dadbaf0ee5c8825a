package recipeauth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/cache"
	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/internal/flows"
	"github.com/MrEthical07/recipeauth/internal/security"
	"github.com/MrEthical07/recipeauth/internal/stores"
	"github.com/MrEthical07/recipeauth/ledger"
	"github.com/MrEthical07/recipeauth/password"
	"github.com/MrEthical07/recipeauth/session"
)

// Engine defines a public type used by recipeauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// All methods are safe for concurrent use.
type Engine struct {
	config      Config
	store       cache.Store
	provider    identity.Provider
	ledger      *ledger.Ledger
	sessions    *session.Cache
	state       *flows.SessionState
	reconciler  *flows.Reconciler
	credentials *stores.LocalCredentials
	sanitizer   *security.DisplayNameSanitizer
	policy      password.Policy
	flow        flows.Service
	audit       *auditDispatcher
	metrics     *Metrics
	log         *zap.Logger
	now         func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close drains pending audit events. It does not close the cache store or the
// identity provider, which the caller owns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped reports events discarded because the audit buffer was full.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot returns empty maps when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return emptySnapshot()
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// ProviderConfigured reports whether an identity provider was supplied.
func (e *Engine) ProviderConfigured() bool {
	return e != nil && e.provider != nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeProvider(d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(MetricProviderLatency, d)
}

// recoverTo converts a panic escaping an Engine method into a failure.
func (e *Engine) recoverTo(op string, fail func(error)) {
	if r := recover(); r != nil {
		e.log.Error("recovered panic in engine operation",
			zap.String("op", op),
			zap.Any("panic", r),
		)
		fail(fmt.Errorf("%s: unexpected failure: %v", op, r))
	}
}

func (e *Engine) sanitizeName(name string) string {
	if e.sanitizer == nil {
		return name
	}
	return e.sanitizer.Sanitize(name)
}

func (e *Engine) wireFlows() {
	metricInc := func(id int) { e.metricInc(MetricID(id)) }

	var remember flows.CredentialMemory
	if e.config.Password.RememberLocal && e.credentials != nil {
		remember = e.credentials
	}

	sessionDeps := flows.SessionDeps{
		Provider:        e.provider,
		State:           e.state,
		Credentials:     remember,
		CallTimeout:     e.config.Provider.CallTimeout,
		SanitizeName:    e.sanitizeName,
		Now:             e.now,
		Logger:          e.log,
		MetricInc:       metricInc,
		ObserveProvider: e.observeProvider,
		EmitAudit:       e.emitAudit,
		Metrics: flows.SessionMetrics{
			LoginSuccess:              int(MetricLoginSuccess),
			LoginFailure:              int(MetricLoginFailure),
			LoginFallback:             int(MetricLoginFallback),
			RegisterSuccess:           int(MetricRegisterSuccess),
			RegisterFailure:           int(MetricRegisterFailure),
			RegisterFallback:          int(MetricRegisterFallback),
			Logout:                    int(MetricLogout),
			LogoutRemoteFailure:       int(MetricLogoutRemoteFailure),
			PasswordResetRequest:      int(MetricPasswordResetRequest),
			PasswordResetUnconfigured: int(MetricPasswordResetUnconfigured),
		},
		Events: flows.SessionEvents{
			LoginSuccess:    auditEventLoginSuccess,
			LoginFailure:    auditEventLoginFailure,
			RegisterSuccess: auditEventRegisterSuccess,
			RegisterFailure: auditEventRegisterFailure,
			Logout:          auditEventLogout,
			PasswordReset:   auditEventPasswordReset,
		},
		Errors: flows.SessionErrors{
			EngineNotReady: ErrEngineNotReady,
			Validation:     newValidationError,
			Credential:     newCredentialError,
			Persistence:    wrapPersistence,
		},
	}

	accountDeps := flows.AccountDeps{
		Ledger:                 e.ledger,
		Policy:                 e.policy,
		MinNameLength:          e.config.Account.MinNameLength,
		SanitizeName:           func(s string) string { return e.sanitizeName(s) },
		UpdateLocalCredentials: e.updateLocalCredentials,
		Logger:                 e.log,
		MetricInc:              metricInc,
		EmitAudit:              e.emitAudit,
		Metrics: flows.AccountMetrics{
			AccountUpdateSuccess:   int(MetricAccountUpdateSuccess),
			AccountUpdateRejected:  int(MetricAccountUpdateRejected),
			EmailChangeRecorded:    int(MetricEmailChangeRecorded),
			PasswordChangeRecorded: int(MetricPasswordChangeRecorded),
			QuotaExceeded:          int(MetricQuotaExceeded),
		},
		Events: flows.AccountEvents{
			AccountUpdated:  auditEventAccountUpdated,
			AccountRejected: auditEventAccountRejected,
		},
		Errors: flows.AccountErrors{
			EngineNotReady: ErrEngineNotReady,
			Validation:     newValidationError,
			Quota:          e.quotaError,
			Persistence:    wrapPersistence,
		},
	}
	if e.config.Password.VerifyCurrent {
		accountDeps.VerifyCurrentPassword = e.verifyCurrentPassword
	}

	e.flow = flows.New(flows.Deps{Session: sessionDeps, Account: accountDeps})

	e.reconciler = flows.NewReconciler(flows.ReconcilerDeps{
		Provider:        e.provider,
		State:           e.state,
		CallTimeout:     e.config.Provider.CallTimeout,
		Now:             e.now,
		Logger:          e.log,
		MetricInc:       metricInc,
		ObserveProvider: e.observeProvider,
		Metrics: flows.ReconcilerMetrics{
			SessionResolved:        int(MetricSessionResolved),
			SessionResolveFallback: int(MetricSessionResolveFallback),
			CacheCorruptionHealed:  int(MetricCacheCorruptionHealed),
			ProviderNotification:   int(MetricProviderNotification),
		},
		Errors: flows.ReconcilerErrors{
			EngineNotReady:      ErrEngineNotReady,
			ProviderUnavailable: ErrProviderUnavailable,
			Persistence:         wrapPersistence,
		},
	})
}

func (e *Engine) quotaError(t ledger.ChangeType) error {
	return &QuotaExceededError{
		Type:   t,
		Limit:  e.ledger.Limit(),
		Window: e.ledger.Window(),
	}
}

func (e *Engine) verifyCurrentPassword(ctx context.Context, current *session.Session, pw string) (flows.PasswordCheck, error) {
	var local flows.LocalPasswordVerifier
	if e.credentials != nil {
		local = e.credentials
	}
	check, err := flows.RunVerifyCurrentPassword(ctx, current, pw, flows.VerifyDeps{
		Provider:        e.provider,
		Local:           local,
		CallTimeout:     e.config.Provider.CallTimeout,
		Logger:          e.log,
		ObserveProvider: e.observeProvider,
	})
	if err != nil && ctx.Err() == nil {
		err = wrapPersistence(err)
	}
	return check, err
}

func (e *Engine) updateLocalCredentials(ctx context.Context, oldEmail, newEmail, newPassword string) error {
	if e.credentials == nil {
		return nil
	}
	return e.credentials.Update(ctx, oldEmail, newEmail, newPassword)
}
