package flows

import (
	"context"
	"time"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Now         func() time.Time
	Codec       Codec
	Revocations RevocationStore
}

// LogoutResult reports what logout did. Err is set only for revocation
// store failures; decode failures never surface here.
type LogoutResult struct {
	Err     error
	Revoked bool
	Subject string
	TokenID string
}

// RunLogout blacklists the presented refresh token for its remaining
// lifetime. Logout is idempotent: a garbage, expired, or already-revoked
// token yields success with no store write. A store failure is NOT
// swallowed: silently failing would leave a token the client believes
// revoked still usable.
func RunLogout(ctx context.Context, tokenStr string, deps LogoutDeps) LogoutResult {
	claims, err := deps.Codec.Decode(tokenStr)
	if err != nil {
		return LogoutResult{}
	}

	ttl := claims.ExpiresAt.Time.Sub(deps.Now())
	if ttl <= 0 {
		return LogoutResult{Subject: claims.Subject, TokenID: claims.ID}
	}

	if err := deps.Revocations.Blacklist(ctx, claims.ID, ttl); err != nil {
		return LogoutResult{
			Err:     err,
			Subject: claims.Subject,
			TokenID: claims.ID,
		}
	}

	return LogoutResult{
		Revoked: true,
		Subject: claims.Subject,
		TokenID: claims.ID,
	}
}
