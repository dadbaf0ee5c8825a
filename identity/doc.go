// Package identity defines the remote identity-provider capability consumed by
// the session flows, and the error classification that decides between
// propagating a failure and falling back to a local session.
//
// # Classification
//
//   - [CredentialError] with a recognised code: the provider answered and
//     rejected the request. Never triggers a local fallback.
//   - Everything else, including [ErrUnavailable], transport timeouts and
//     unrecognised codes: the provider is treated as unavailable.
//
// Implementations live in identity/rest (HTTP identity toolkit API) and
// identity/memory (in-process, for tests and demos).
package identity
