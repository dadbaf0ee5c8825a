// Package ledger records sensitive account changes and answers rolling-window
// quota questions about them.
//
// Each account (keyed by the email it had when the change was made) owns two
// timestamp sequences, one for email changes and one for password changes.
// A change is permitted while fewer than Limit timestamps of that type are
// younger than Window.
//
// # Storage
//
// The whole ledger is one JSON document under a single [cache.Store] key.
// Record prunes timestamps that left the window and keeps at most Limit of
// the newest, which leaves every quota answer unchanged.
//
// # What this package must NOT do
//
//   - Validate email shape or password content.
//   - Decide what happens when a quota is exhausted. Callers do.
//   - Import recipeauth or internal packages.
package ledger
