// Package auth manages OAuth2 Client Credentials Grant tokens for the
// Unqork API.
//
// Tokens are cached in memory and refreshed when they come within a
// configurable buffer of expiry. Invalidate forces the next Token call to
// fetch a fresh token; the API client uses this to implement its
// single-retry-on-401 policy.
package auth
