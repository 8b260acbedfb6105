package flows

import (
	"context"
	"time"

	"github.com/silentauth/silentauth/token"
)

// Codec is the narrow signer/verifier contract the flows need.
type Codec interface {
	Encode(claims token.Claims) (string, error)
	Decode(signed string) (*token.Claims, error)
}

// RevocationStore is the narrow blacklist contract the flows need.
type RevocationStore interface {
	Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// UserRecord is the flow-local user model used by login/register/recover
// flows.
type UserRecord struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    int64
}

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Mint     MintDeps
	Validate ValidateDeps
	Rotate   RotateDeps
	Logout   LogoutDeps
	Recover  RecoverDeps
	Login    LoginDeps
	Register RegisterDeps
}
