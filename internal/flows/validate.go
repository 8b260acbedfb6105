package flows

import (
	"errors"

	"github.com/silentauth/silentauth/token"
)

// ValidateFailureKind classifies access validation failures for
// root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMalformed
	ValidateFailureExpired
	ValidateFailureWrongKind
)

// ValidateDeps captures access validation dependencies.
type ValidateDeps struct {
	Codec Codec
}

// ValidateResult returns the resolved subject or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Subject string
	Claims  *token.Claims
}

// RunValidateAccess verifies an access token through the codec alone.
// The revocation store is deliberately not consulted: only rotation and
// logout produce revocation entries, and those act on refresh tokens, so
// a compromised access token is bounded by its short TTL instead of
// costing a store round-trip on every request.
func RunValidateAccess(tokenStr string, deps ValidateDeps) ValidateResult {
	claims, err := deps.Codec.Decode(tokenStr)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return ValidateResult{Failure: ValidateFailureExpired, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
	}

	if claims.Kind != token.KindAccess {
		return ValidateResult{Failure: ValidateFailureWrongKind}
	}

	return ValidateResult{
		Subject: claims.Subject,
		Claims:  claims,
	}
}
