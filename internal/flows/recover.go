package flows

import (
	"context"
)

// RecoverOutcome names how the recovery flow resolved.
type RecoverOutcome int

const (
	// RecoverUnauthenticated is the valid terminal outcome when no
	// presented token could establish identity. It is not an error.
	RecoverUnauthenticated RecoverOutcome = iota
	// RecoverViaAccess means the access token validated; nothing was
	// rotated or issued.
	RecoverViaAccess
	// RecoverViaRotation means the refresh token was rotated and a new
	// pair must replace the client's stored tokens.
	RecoverViaRotation
)

// RecoverDeps captures session recovery dependencies.
type RecoverDeps struct {
	ValidateAccess func(tokenStr string) ValidateResult
	Rotate         func(ctx context.Context, refreshToken string) RotateResult
	FetchProfile   func(ctx context.Context, subject string) (UserRecord, error)
}

// RecoverResult is the always-successful recovery payload. Minted is
// populated only for RecoverViaRotation.
type RecoverResult struct {
	Outcome RecoverOutcome
	Subject string
	User    UserRecord
	Minted  MintResult
}

// RunRecover re-establishes a session from whatever tokens the client
// still holds. The access token is always attempted first; the refresh
// token is consulted only if the access attempt fails or is absent, which
// keeps most recoveries off the revocation store entirely.
//
// Every path resolves to an outcome; the flow never propagates an
// error. A valid token whose subject no longer resolves to a user
// (deleted account, stale database) degrades to unauthenticated exactly
// like a missing session.
func RunRecover(ctx context.Context, accessToken, refreshToken string, deps RecoverDeps) RecoverResult {
	var (
		subject string
		outcome RecoverOutcome
		minted  MintResult
	)

	if accessToken != "" {
		if v := deps.ValidateAccess(accessToken); v.Failure == ValidateFailureNone {
			subject = v.Subject
			outcome = RecoverViaAccess
		}
	}

	if subject == "" && refreshToken != "" {
		if r := deps.Rotate(ctx, refreshToken); r.Failure == RotateFailureNone {
			// Identity comes from the pair we just minted. The new access
			// claims are trusted without a revocation check.
			subject = r.Minted.AccessClaims.Subject
			outcome = RecoverViaRotation
			minted = r.Minted
		}
	}

	if subject == "" {
		return RecoverResult{Outcome: RecoverUnauthenticated}
	}

	user, err := deps.FetchProfile(ctx, subject)
	if err != nil {
		return RecoverResult{Outcome: RecoverUnauthenticated}
	}

	return RecoverResult{
		Outcome: outcome,
		Subject: subject,
		User:    user,
		Minted:  minted,
	}
}
