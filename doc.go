// Package silentauth provides a stateless-first authentication engine with
// short-lived JWT access tokens, rotating single-use JWT refresh tokens, and a
// Redis-backed revocation blacklist.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// silentauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenPair, RecoveryResult, MetricsSnapshot). All flow
// orchestration lives under internal/flows; token signing lives in the token
// package; the blacklist lives in the revocation package.
//
// # What this package must NOT do
//
//   - Expose Redis clients, signing secrets, or claim encoding details in its
//     public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports silentauth (no import cycles).
//
// # Performance contract
//
// ValidateAccess is the hot path. It is pure computation: signature check and
// claim decoding with no Redis round-trip. Rotate, Logout, and Recover are
// allowed Redis round-trips; Rotate performs at most one read and one write.
package silentauth
