// Package middleware exposes HTTP guards built on the reconciled session of a
// recipeauth.Engine.
//
// # Guards
//
//   - [RequireSession]: any authenticated session, remote or local.
//   - [RequireRemote]: only sessions issued by the identity provider.
//
// Each guard reads Engine.CurrentSession, resolving it once if the engine has
// not reconciled yet, and injects the session into the request context.
//
// # What this package must NOT do
//
//   - Call the identity provider or the cache store directly.
//   - Make decisions beyond pass/reject on the current session.
package middleware
