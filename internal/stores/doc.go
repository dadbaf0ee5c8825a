// Package stores holds small cache-backed record stores used by the session
// flows. Today that is [LocalCredentials], the Argon2id hashes remembered for
// sessions established without the identity provider.
//
// # Design
//
// Each store keeps one JSON document under a single cache key and serialises
// its read-modify-write cycles with a mutex. Malformed documents are deleted
// and treated as empty.
//
// # What this package must NOT do
//
//   - Import recipeauth or any sibling internal package.
//   - Log or expose plaintext passwords or hashes.
//   - Decide when a credential check is required. Flow functions do.
package stores
