// Package jwt issues and verifies identity ID tokens. A token names the
// account (user_id, email, name) that an identity provider authenticated.
//
// [Manager] signs and verifies with HS256 or Ed25519. [ParseUnverified] reads
// the claims of a token minted by a third party whose keys are not held
// locally; its result is informational and must not be used for
// authorization.
package jwt
