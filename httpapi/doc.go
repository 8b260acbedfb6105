// Package httpapi exposes the engine over HTTP with gin.
//
// Tokens travel exclusively in HttpOnly cookies. The access cookie is sent
// on every request; the refresh cookie is path-scoped to /auth so the
// long-lived credential only appears on auth routes.
//
// # What this package must NOT do
//
//   - Reveal why a token was rejected in any response body.
//   - Touch the revocation store or user provider directly; every decision
//     goes through the engine.
package httpapi
