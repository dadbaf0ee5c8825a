package recipeauth

import (
	"time"

	"github.com/MrEthical07/recipeauth/password"
)

// LintWarning flags a legal but questionable setting.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult is the list of warnings produced by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that validate but weaken the account policy.
func (c *Config) Lint() LintResult {
	var ws LintResult

	if c.Ledger.Limit > 10 {
		ws = append(ws, LintWarning{Code: "ledger_limit_high", Message: "more than 10 sensitive changes per window"})
	}
	if c.Ledger.Window < 24*time.Hour {
		ws = append(ws, LintWarning{Code: "ledger_window_short", Message: "change quota window shorter than one day"})
	}
	if c.Provider.CallTimeout == 0 {
		ws = append(ws, LintWarning{Code: "provider_timeout_disabled", Message: "identity provider calls are unbounded"})
	}
	if c.Provider.CallTimeout > time.Minute {
		ws = append(ws, LintWarning{Code: "provider_timeout_long", Message: "identity provider timeout above one minute delays fallback"})
	}
	if !c.Password.VerifyCurrent {
		ws = append(ws, LintWarning{Code: "current_password_unverified", Message: "password changes skip current-password verification"})
	}
	if c.Password.MinLength < password.DefaultMinLength {
		ws = append(ws, LintWarning{Code: "password_min_length_low", Message: "minimum password length below 6"})
	}
	if !c.Account.SanitizeNames {
		ws = append(ws, LintWarning{Code: "names_unsanitized", Message: "display names are stored without markup stripping"})
	}
	if !c.Audit.Enabled {
		ws = append(ws, LintWarning{Code: "audit_disabled", Message: "account changes are not audited"})
	}

	return ws
}
