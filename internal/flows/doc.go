// Package flows contains the orchestrators behind every Engine operation.
//
// Flow functions (RunLogin, RunRegister, RunLogout, RunResetPassword,
// RunAccountUpdate) accept a typed dependency struct and return results
// without side-effects beyond those dependencies. Host sentinels, metric IDs
// and audit event names are injected, so the flows stay testable with fakes
// and the Engine type stays thin.
//
// Two types carry state: [SessionState] owns the current session record and
// its cached mirror, and [Reconciler] tracks the resolution phase of that
// record against the identity provider.
//
// # Architecture boundaries
//
// Flows coordinate the identity provider, the session cache, the change
// ledger, audit and metrics. They do NOT own the provider, the ledger or the
// cache store. Ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Import recipeauth (to avoid import cycles).
//   - Reach a cache store directly. Persistence goes through SessionState,
//     the ledger or injected functions.
//   - Let a provider panic or timeout escape as anything other than
//     identity.ErrUnavailable.
package flows
