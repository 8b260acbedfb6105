// Package token implements the signed-claims codec used for access and
// refresh tokens.
//
// The codec is pure and stateless: Encode and Decode perform no I/O and
// are safe for concurrent use. Decode classifies every failure into one
// of two sentinel errors, [ErrExpired] or [ErrMalformed], because callers
// branch on the distinction (an expired access token triggers the refresh
// fallback; a malformed one never does).
package token
