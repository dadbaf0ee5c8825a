// Package security sanitises user-supplied profile text before it reaches the
// session record.
//
// # What this package must NOT do
//
//   - Import recipeauth or any sibling internal package.
//   - Enforce length rules. The account flow owns those.
package security
