package flows

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/ledger"
	"github.com/MrEthical07/recipeauth/password"
	"github.com/MrEthical07/recipeauth/session"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	msgAccountUpdated   = "Account updated successfully!"
	msgInvalidEmail     = "Please enter a valid email address"
	msgWrongCurrentPass = "Current password is incorrect"
)

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// AccountChanges is a proposed profile edit. Empty Name and Email mean the
// field is not being changed. The password is only considered when
// ChangePassword is set and NewPassword is non-empty.
type AccountChanges struct {
	Name            string
	Email           string
	ChangePassword  bool
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// AccountUpdateResult is the outcome of an accepted edit.
type AccountUpdateResult struct {
	User            *session.Session
	NameChanged     bool
	EmailChanged    bool
	PasswordChanged bool
	// Remaining is the post-record quota, set only when a sensitive field changed.
	Remaining *ledger.Quota
	Message   string
}

// PasswordCheck is the outcome of a current-password verification.
type PasswordCheck int

const (
	// PasswordUnchecked means nothing could vouch for the session's password.
	PasswordUnchecked PasswordCheck = iota
	PasswordMatched
	PasswordMismatched
)

// ChangeLedger is the quota store consulted for sensitive changes.
type ChangeLedger interface {
	CanChange(ctx context.Context, email string, t ledger.ChangeType) (bool, error)
	RecordAll(ctx context.Context, email string, types ...ledger.ChangeType) error
	Quota(ctx context.Context, email string) (ledger.Quota, error)
}

// AccountMetrics carries metric IDs used by the account flow.
type AccountMetrics struct {
	AccountUpdateSuccess   int
	AccountUpdateRejected  int
	EmailChangeRecorded    int
	PasswordChangeRecorded int
	QuotaExceeded          int
}

// AccountEvents carries audit event names used by the account flow.
type AccountEvents struct {
	AccountUpdated  string
	AccountRejected string
}

// AccountErrors carries host-level error constructors used by the account flow.
type AccountErrors struct {
	EngineNotReady error
	Validation     func(message string) error
	Quota          func(t ledger.ChangeType) error
	Persistence    func(error) error
}

// AccountDeps captures account-update dependencies.
type AccountDeps struct {
	Ledger        ChangeLedger
	Policy        password.Policy
	MinNameLength int
	SanitizeName  func(string) string

	// VerifyCurrentPassword checks the session's current password. Nil skips
	// the check.
	VerifyCurrentPassword func(ctx context.Context, current *session.Session, pw string) (PasswordCheck, error)
	// UpdateLocalCredentials runs after the ledger records a change. newPassword
	// is empty unless a local session changed its password.
	UpdateLocalCredentials func(ctx context.Context, oldEmail, newEmail, newPassword string) error

	Logger    *zap.Logger
	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, userID, email string, err error, meta func() map[string]string)

	Metrics AccountMetrics
	Events  AccountEvents
	Errors  AccountErrors
}

func (d AccountDeps) withDefaults() AccountDeps {
	if d.MinNameLength <= 0 {
		d.MinNameLength = 2
	}
	if d.SanitizeName == nil {
		d.SanitizeName = strings.TrimSpace
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if d.Errors.Validation == nil {
		d.Errors.Validation = func(msg string) error { return errors.New(msg) }
	}
	if d.Errors.Quota == nil {
		d.Errors.Quota = func(t ledger.ChangeType) error { return fmt.Errorf("%s change quota exceeded", t) }
	}
	if d.Errors.Persistence == nil {
		d.Errors.Persistence = func(err error) error { return err }
	}
	return d
}

// RunAccountUpdate validates changes against current in a fixed order (name,
// email, password) and stops at the first failure. Nothing is recorded unless
// every step passes. Accepted email and password changes are recorded under
// current's email as it was before the edit. The returned record is not
// persisted.
func RunAccountUpdate(ctx context.Context, current *session.Session, changes AccountChanges, deps AccountDeps) (*AccountUpdateResult, error) {
	deps = deps.withDefaults()
	if deps.Ledger == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if current == nil || !current.Valid() {
		return nil, deps.Errors.Validation("No signed-in account to update")
	}

	originalEmail := current.Email
	updated := current.Clone()
	res := &AccountUpdateResult{User: updated}

	reject := func(err error) (*AccountUpdateResult, error) {
		deps.MetricInc(deps.Metrics.AccountUpdateRejected)
		deps.EmitAudit(ctx, deps.Events.AccountRejected, false, current.ID, originalEmail, err, nil)
		return nil, err
	}

	if changes.Name != "" {
		name := deps.SanitizeName(changes.Name)
		if name != current.DisplayName {
			if utf8.RuneCountInString(name) < deps.MinNameLength {
				return reject(deps.Errors.Validation(fmt.Sprintf("Name must be at least %d characters long", deps.MinNameLength)))
			}
			updated.DisplayName = name
			res.NameChanged = true
		}
	}

	if changes.Email != "" && changes.Email != originalEmail {
		ok, err := deps.Ledger.CanChange(ctx, originalEmail, ledger.Email)
		if err != nil {
			return reject(deps.Errors.Persistence(err))
		}
		if !ok {
			deps.MetricInc(deps.Metrics.QuotaExceeded)
			return reject(deps.Errors.Quota(ledger.Email))
		}
		if !ValidEmail(changes.Email) {
			return reject(deps.Errors.Validation(msgInvalidEmail))
		}
		updated.Email = changes.Email
		res.EmailChanged = true
	}

	if changes.ChangePassword && changes.NewPassword != "" {
		ok, err := deps.Ledger.CanChange(ctx, originalEmail, ledger.Password)
		if err != nil {
			return reject(deps.Errors.Persistence(err))
		}
		if !ok {
			deps.MetricInc(deps.Metrics.QuotaExceeded)
			return reject(deps.Errors.Quota(ledger.Password))
		}
		switch err := deps.Policy.ValidateChange(changes.NewPassword, changes.ConfirmPassword); {
		case errors.Is(err, password.ErrMismatch):
			return reject(deps.Errors.Validation(password.ErrMismatch.Error()))
		case errors.Is(err, password.ErrTooShort):
			return reject(deps.Errors.Validation(deps.Policy.TooShortMessage()))
		case err != nil:
			return reject(deps.Errors.Validation(err.Error()))
		}
		if deps.VerifyCurrentPassword != nil {
			check, err := deps.VerifyCurrentPassword(ctx, current, changes.CurrentPassword)
			if err != nil {
				return reject(err)
			}
			switch check {
			case PasswordMismatched:
				return reject(deps.Errors.Validation(msgWrongCurrentPass))
			case PasswordUnchecked:
				deps.Logger.Warn("current password not verified; no verifier for session",
					zap.String("provider", string(current.Provider)),
				)
			}
		}
		res.PasswordChanged = true
	}

	var changed []ledger.ChangeType
	if res.EmailChanged {
		changed = append(changed, ledger.Email)
	}
	if res.PasswordChanged {
		changed = append(changed, ledger.Password)
	}
	if len(changed) > 0 {
		if err := deps.Ledger.RecordAll(ctx, originalEmail, changed...); err != nil {
			return reject(deps.Errors.Persistence(err))
		}
		if res.EmailChanged {
			deps.MetricInc(deps.Metrics.EmailChangeRecorded)
		}
		if res.PasswordChanged {
			deps.MetricInc(deps.Metrics.PasswordChangeRecorded)
		}
	}

	if (res.EmailChanged || res.PasswordChanged) && deps.UpdateLocalCredentials != nil {
		newPassword := ""
		if res.PasswordChanged && !current.IsRemote() {
			newPassword = changes.NewPassword
		}
		if err := deps.UpdateLocalCredentials(ctx, originalEmail, updated.Email, newPassword); err != nil {
			deps.Logger.Warn("failed to update local credentials", zap.Error(err))
		}
	}

	res.Message = msgAccountUpdated
	if res.EmailChanged || res.PasswordChanged {
		q, err := deps.Ledger.Quota(ctx, originalEmail)
		if err != nil {
			deps.Logger.Warn("failed to read remaining change quota", zap.Error(err))
		} else {
			res.Remaining = &q
			res.Message = fmt.Sprintf("%s Email changes remaining: %d, Password changes remaining: %d",
				msgAccountUpdated, q.Email, q.Password)
		}
	}

	deps.MetricInc(deps.Metrics.AccountUpdateSuccess)
	deps.EmitAudit(ctx, deps.Events.AccountUpdated, true, current.ID, originalEmail, nil, func() map[string]string {
		return map[string]string{
			"name_changed":     boolString(res.NameChanged),
			"email_changed":    boolString(res.EmailChanged),
			"password_changed": boolString(res.PasswordChanged),
		}
	})
	return res, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
