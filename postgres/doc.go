// Package postgres implements the engine's UserProvider over a Postgres
// users table using database/sql and lib/pq.
//
// # Architecture boundaries
//
// This package owns the users schema and nothing else. Token state never
// touches Postgres: access tokens are stateless and refresh revocation
// lives in Redis.
package postgres
