package recipeauth

import (
	"github.com/MrEthical07/recipeauth/internal/flows"
	"github.com/MrEthical07/recipeauth/ledger"
	"github.com/MrEthical07/recipeauth/session"
)

// Result is the outcome of a session lifecycle operation. Failures carry a
// user-facing Message and the underlying Err for errors.Is checks.
type Result struct {
	Success bool
	User    *session.Session
	Message string
	Err     error
}

// UpdateResult is the outcome of an account update.
type UpdateResult struct {
	Success bool
	User    *session.Session
	// Remaining is the quota left after the update. It is nil unless an email
	// or password change was recorded.
	Remaining *ledger.Quota
	Message   string
	Err       error
}

// AccountChanges is a proposed profile edit. Empty Name and Email leave those
// fields unchanged. Password fields are considered only when ChangePassword
// is set and NewPassword is non-empty.
type AccountChanges struct {
	Name            string
	Email           string
	ChangePassword  bool
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

func (c AccountChanges) toFlow() flows.AccountChanges {
	return flows.AccountChanges{
		Name:            c.Name,
		Email:           c.Email,
		ChangePassword:  c.ChangePassword,
		CurrentPassword: c.CurrentPassword,
		NewPassword:     c.NewPassword,
		ConfirmPassword: c.ConfirmPassword,
	}
}

// ResolveState is the reconciliation phase of the current session.
type ResolveState = flows.ResolveState

const (
	Unresolved = flows.Unresolved
	Resolving  = flows.Resolving
	Resolved   = flows.Resolved
)

func failure(err error) Result {
	return Result{Success: false, Message: userMessage(err), Err: err}
}

func updateFailure(err error) UpdateResult {
	return UpdateResult{Success: false, Message: userMessage(err), Err: err}
}
