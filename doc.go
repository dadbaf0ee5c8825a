// Package recipeauth manages the signed-in account of a recipe-browsing
// client: sign-in through a remote identity provider with a local fallback,
// reconciliation of the current session against a persisted cache, and a
// change ledger that limits email and password changes per rolling window.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// recipeauth is the public surface. It exposes [Engine], [Builder], [Config],
// the error types and value types ([Result], [UpdateResult],
// [MetricsSnapshot]). Flow orchestration, local credential storage and name
// sanitising live under internal/ and are never exported. Storage goes
// through a single injected cache.Store; the identity provider is an optional
// identity.Provider decided once at Build time.
//
// # What this package must NOT do
//
//   - Let a provider failure other than a credential rejection fail a login
//     or registration. Those fall back to a local session.
//   - Record a ledger entry for a change that failed validation.
//   - Tell the identity provider about email or password changes. The ledger
//     and the current session are the only records updated.
//   - Import any sub-package that re-imports recipeauth (no import cycles).
package recipeauth
