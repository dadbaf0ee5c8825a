// Package password implements password hashing with Argon2id and the password
// change policy applied to account updates.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// caller can re-hash after the next successful verification.
//
// # Policy
//
// [Policy.ValidateChange] checks confirmation and minimum length, counted in
// Unicode code points. Rate limits on password changes are enforced by the
// change ledger, not here.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other recipeauth package.
//   - Log plaintext passwords.
package password
