// Package internal holds the parts of recipeauth that are private to the
// module.
//
// # Sub-packages
//
//   - flows: session, account-update and reconciliation orchestrators behind
//     every Engine operation
//   - security: display-name sanitising
//   - stores: remembered local credentials over a cache.Store
//
// # What this package must NOT do
//
//   - Export types that appear in the public recipeauth API.
//   - Be imported by any package outside the recipeauth module.
package internal
