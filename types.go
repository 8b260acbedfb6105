package silentauth

import (
	"context"
	"time"

	"github.com/silentauth/silentauth/token"
)

// TokenCodec signs and verifies token claims. The default implementation is
// [token.Codec]; replace it only to swap signing infrastructure (KMS, key
// rotation), never to change claim semantics.
type TokenCodec interface {
	Encode(claims token.Claims) (string, error)
	Decode(signed string) (*token.Claims, error)
}

// RevocationStore tracks revoked token IDs until their natural expiry. The
// default implementation is [revocation.Store] over Redis.
type RevocationStore interface {
	Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// UserProvider is the application-supplied account backend. Implementations
// must return [ErrUserNotFound] when no record matches and [ErrEmailExists]
// (possibly wrapped) on duplicate registration.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, id string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// UserRecord is the engine's view of an account. PasswordHash is the PHC
// string produced at registration; the engine never stores plaintext.
type UserRecord struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUserInput carries the already-hashed registration payload to the
// provider.
type CreateUserInput struct {
	Email        string
	PasswordHash string
}

// TokenPair is one minted access+refresh pair. Both tokens share the same
// issue instant, so the expiry fields differ by exactly the configured TTL
// gap.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RecoveryResult is the outcome of [Engine.Recover]. Unauthenticated results
// are valid terminal states, not errors. Pair is non-nil only when Rotated is
// true; the caller must then replace the client's stored tokens.
type RecoveryResult struct {
	Authenticated bool
	Subject       string
	User          UserRecord
	Rotated       bool
	Pair          *TokenPair
}
