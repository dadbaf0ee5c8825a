package recipeauth

import (
	"context"

	"github.com/MrEthical07/recipeauth/ledger"
	"github.com/MrEthical07/recipeauth/session"
)

// Apply describes the apply operation and its observable behavior.
//
// Apply validates changes against current and records accepted email and
// password changes in the change ledger. The updated record is returned but
// not made current; use UpdateAccount for that.
func (e *Engine) Apply(ctx context.Context, current *session.Session, changes AccountChanges) (res UpdateResult) {
	if e == nil || !e.flow.Initialized() {
		return updateFailure(ErrEngineNotReady)
	}
	defer e.recoverTo("apply", func(err error) { res = updateFailure(err) })

	out, err := e.flow.UpdateAccount(ctx, current, changes.toFlow())
	if err != nil {
		return updateFailure(err)
	}
	return UpdateResult{
		Success:   true,
		User:      out.User,
		Remaining: out.Remaining,
		Message:   out.Message,
	}
}

// UpdateAccount applies changes to the current session and persists the
// updated record as the new current session.
//
// Ledger entries are written before the session is persisted. If persisting
// fails the recorded changes stand and ErrPersistence is returned.
func (e *Engine) UpdateAccount(ctx context.Context, changes AccountChanges) (res UpdateResult) {
	if e == nil || !e.flow.Initialized() {
		return updateFailure(ErrEngineNotReady)
	}
	defer e.recoverTo("update_account", func(err error) { res = updateFailure(err) })

	current := e.state.Current()
	if current == nil {
		return updateFailure(ErrNoSession)
	}

	res = e.Apply(ctx, current, changes)
	if !res.Success {
		return res
	}
	if err := e.state.Establish(ctx, res.User); err != nil {
		return updateFailure(wrapPersistence(err))
	}
	return res
}

// RemainingChanges returns the email and password changes still allowed for
// email in the current window.
func (e *Engine) RemainingChanges(ctx context.Context, email string) (ledger.Quota, error) {
	if e == nil || e.ledger == nil {
		return ledger.Quota{}, ErrEngineNotReady
	}
	q, err := e.ledger.Quota(ctx, email)
	if err != nil {
		return ledger.Quota{}, wrapPersistence(err)
	}
	return q, nil
}

// QuotaPolicy renders the change policy, e.g. "3 per 14 days".
func (e *Engine) QuotaPolicy() string {
	if e == nil || e.ledger == nil {
		return ""
	}
	return e.ledger.Policy()
}
