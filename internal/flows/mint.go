package flows

import (
	"time"

	"github.com/silentauth/silentauth/token"
)

// MintFailureKind classifies mint flow failures for root-level mapping.
type MintFailureKind int

const (
	MintFailureNone MintFailureKind = iota
	MintFailureEncode
)

// MintDeps captures mint flow dependencies.
type MintDeps struct {
	Now        func() time.Time
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Codec      Codec
}

// MintResult carries the issued token pair or failure metadata.
type MintResult struct {
	Failure       MintFailureKind
	Err           error
	Subject       string
	AccessToken   string
	RefreshToken  string
	AccessClaims  token.Claims
	RefreshClaims token.Claims
}

// RunMint issues a fresh access+refresh pair for subject. Both tokens get
// a new uuid jti and iat = now; the pair shares a single now so the TTL
// arithmetic stays exact. No revocation check happens here: a freshly
// minted token is always trusted.
func RunMint(subject string, deps MintDeps) MintResult {
	now := deps.Now()

	accessClaims := token.New(subject, token.KindAccess, now, deps.AccessTTL)
	refreshClaims := token.New(subject, token.KindRefresh, now, deps.RefreshTTL)

	access, err := deps.Codec.Encode(accessClaims)
	if err != nil {
		return MintResult{
			Failure: MintFailureEncode,
			Err:     err,
			Subject: subject,
		}
	}

	refresh, err := deps.Codec.Encode(refreshClaims)
	if err != nil {
		return MintResult{
			Failure: MintFailureEncode,
			Err:     err,
			Subject: subject,
		}
	}

	return MintResult{
		Subject:       subject,
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessClaims:  accessClaims,
		RefreshClaims: refreshClaims,
	}
}
