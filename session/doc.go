// Package session provides the current-user record and its persisted cache.
//
// # Encoding
//
// Records are stored as JSON carrying a schema version field "v". Version 1
// is the unversioned browser-era shape (uid, name, isLoggedIn, provider
// "firebase"/"localStorage"); it is migrated to the current version on read.
//
// # Architecture boundaries
//
// This package owns the [Session] model, its encoder and the [Cache] that keeps
// exactly one current record under a fixed key. It does NOT talk to identity
// providers or decide when a session is established.
//
// # What this package must NOT do
//
//   - Import recipeauth, identity or internal packages (no upward imports).
//   - Store passwords or tokens in [Session] fields.
//   - Return a corrupt record. Unreadable cache content is deleted and reported
//     as absent.
package session
