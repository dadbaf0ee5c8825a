// Package cache provides the durable key-value store shared by the session
// cache, the change ledger and the local credential memory.
//
// # Backends
//
//   - [Memory]: process-local map, used by tests and as the Builder default.
//   - [Redis]: go-redis backed, optional key prefix.
//   - [File]: one file per key under a directory, written with an atomic rename.
//   - cache/postgres: a single kv table managed by goose migrations.
//
// # What this package must NOT do
//
//   - Interpret stored values. Parsing and self-healing of malformed content
//     belong to the owners of each key.
//   - Import recipeauth or any component package.
package cache
