package flows

import (
	"context"
	"errors"
	"time"

	"github.com/silentauth/silentauth/token"
)

// RotateFailureKind classifies rotation failures for root-level mapping.
type RotateFailureKind int

const (
	RotateFailureNone RotateFailureKind = iota
	RotateFailureMalformed
	RotateFailureExpired
	RotateFailureWrongKind
	RotateFailureRevoked
	RotateFailureStore
	RotateFailureMint
)

// RotateDeps captures rotation flow dependencies.
type RotateDeps struct {
	Now         func() time.Time
	Codec       Codec
	Revocations RevocationStore
	Mint        func(subject string) MintResult
}

// RotateResult carries the successor pair or failure metadata.
type RotateResult struct {
	Failure RotateFailureKind
	Err     error
	Subject string
	TokenID string
	Minted  MintResult
}

// RunRotate exchanges a refresh token for a brand-new pair, revoking the
// presented one. A refresh token is single-use AND time-bounded: either a
// blacklist hit or an elapsed expiry alone is sufficient to reject it.
//
// The IsBlacklisted check and the Blacklist write are not atomic; two
// concurrent rotations of the same token can both pass the check before
// either writes. That narrow window is accepted; each jti is globally
// unique, so rotations of different tokens never contend.
func RunRotate(ctx context.Context, refreshToken string, deps RotateDeps) RotateResult {
	claims, err := deps.Codec.Decode(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return RotateResult{Failure: RotateFailureExpired, Err: err}
		}
		return RotateResult{Failure: RotateFailureMalformed, Err: err}
	}

	if claims.Kind != token.KindRefresh {
		return RotateResult{Failure: RotateFailureWrongKind, TokenID: claims.ID}
	}

	revoked, err := deps.Revocations.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return RotateResult{
			Failure: RotateFailureStore,
			Err:     err,
			Subject: claims.Subject,
			TokenID: claims.ID,
		}
	}
	if revoked {
		return RotateResult{
			Failure: RotateFailureRevoked,
			Subject: claims.Subject,
			TokenID: claims.ID,
		}
	}

	// Decode already rejects expired tokens; re-derive the TTL anyway so
	// a non-positive remainder can never reach the store as a revocation
	// entry.
	ttl := claims.ExpiresAt.Time.Sub(deps.Now())
	if ttl <= 0 {
		return RotateResult{
			Failure: RotateFailureExpired,
			Subject: claims.Subject,
			TokenID: claims.ID,
		}
	}

	if err := deps.Revocations.Blacklist(ctx, claims.ID, ttl); err != nil {
		return RotateResult{
			Failure: RotateFailureStore,
			Err:     err,
			Subject: claims.Subject,
			TokenID: claims.ID,
		}
	}

	minted := deps.Mint(claims.Subject)
	if minted.Failure != MintFailureNone {
		return RotateResult{
			Failure: RotateFailureMint,
			Err:     minted.Err,
			Subject: claims.Subject,
			TokenID: claims.ID,
		}
	}

	return RotateResult{
		Subject: claims.Subject,
		TokenID: claims.ID,
		Minted:  minted,
	}
}
