package recipeauth

import (
	"context"

	"github.com/MrEthical07/recipeauth/session"
)

// Login describes the login operation and its observable behavior.
//
// Login signs in through the identity provider. Credential rejections are
// returned as a failed Result carrying the provider message. When the
// provider is absent or unreachable, a local session is established instead.
func (e *Engine) Login(ctx context.Context, email, password string) (res Result) {
	if e == nil || !e.flow.Initialized() {
		return failure(ErrEngineNotReady)
	}
	defer e.recoverTo("login", func(err error) { res = failure(err) })

	rec, err := e.flow.Login(ctx, email, password)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, User: rec}
}

// Register describes the register operation and its observable behavior.
//
// Register creates a provider account and sets its display name. A failed
// display-name update does not fail the registration. Fallback rules match
// Login.
func (e *Engine) Register(ctx context.Context, email, password, name string) (res Result) {
	if e == nil || !e.flow.Initialized() {
		return failure(ErrEngineNotReady)
	}
	defer e.recoverTo("register", func(err error) { res = failure(err) })

	rec, err := e.flow.Register(ctx, email, password, name)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, User: rec}
}

// Logout ends the provider session on a best-effort basis and clears the
// current session. It fails only when the cached record cannot be removed.
func (e *Engine) Logout(ctx context.Context) (res Result) {
	if e == nil || !e.flow.Initialized() {
		return failure(ErrEngineNotReady)
	}
	defer e.recoverTo("logout", func(err error) { res = failure(err) })

	if err := e.flow.Logout(ctx); err != nil {
		return failure(err)
	}
	return Result{Success: true}
}

// ResetPassword requests a password reset email. It always succeeds; Message
// tells whether the provider actually sent one.
func (e *Engine) ResetPassword(ctx context.Context, email string) (res Result) {
	if e == nil || !e.flow.Initialized() {
		return failure(ErrEngineNotReady)
	}
	defer e.recoverTo("reset_password", func(err error) {
		res = Result{Success: true, Message: "Password reset requested"}
	})

	return Result{Success: true, Message: e.flow.ResetPassword(ctx, email)}
}

// CurrentSession returns a copy of the in-memory session, or nil when nobody
// is signed in. It does not consult the provider or the cache.
func (e *Engine) CurrentSession() *session.Session {
	if e == nil || e.state == nil {
		return nil
	}
	return e.state.Current()
}

// ResolveSession describes the resolvesession operation and its observable behavior.
//
// ResolveSession asks the provider for its current principal and falls back
// to the cached record when the provider cannot answer. It returns nil
// without error when no authenticated session exists.
func (e *Engine) ResolveSession(ctx context.Context) (rec *session.Session, err error) {
	if e == nil || e.reconciler == nil {
		return nil, ErrEngineNotReady
	}
	defer e.recoverTo("resolve_session", func(perr error) { rec, err = nil, perr })

	return e.reconciler.Resolve(ctx)
}

// Watch subscribes to provider session-change notifications until ctx is
// done or stop is called. Each notification re-runs reconciliation and
// overwrites the cached record.
func (e *Engine) Watch(ctx context.Context) (stop func(), err error) {
	if e == nil || e.reconciler == nil {
		return nil, ErrEngineNotReady
	}
	return e.reconciler.Watch(ctx)
}

// ResolveState reports the reconciliation phase of the current session.
func (e *Engine) ResolveState() ResolveState {
	if e == nil || e.reconciler == nil {
		return Unresolved
	}
	return e.reconciler.State()
}
