package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every Redis round-trip failure so callers can
// distinguish an unreachable store from an ordinary miss.
var ErrUnavailable = errors.New("revocation store unavailable")

// revokedMarker is the value stored under a blacklisted jti. Only key
// existence matters.
const revokedMarker = "revoked"

// Store is the Redis-backed revocation list.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a store writing keys under prefix.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "rvk"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(tokenID string) string {
	return s.prefix + ":" + tokenID
}

// Blacklist records tokenID as revoked for ttl. A non-positive ttl is a
// no-op: the token has already expired naturally and storing it would
// only waste a key.
func (s *Store) Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(tokenID), revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsBlacklisted reports whether tokenID was revoked and its TTL has not
// elapsed. Never-seen identifiers report false.
func (s *Store) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}
