// Package revocation records token identifiers that must no longer be
// honored.
//
// Entries are keyed by jti and carry a TTL equal to the token's remaining
// validity, so the store cleans itself up: an entry expiring naturally
// coincides with the token it blocks becoming invalid anyway. [Store] is
// the Redis-backed production implementation; [Memory] serves tests and
// single-node deployments.
package revocation
