package flows

import (
	"context"
	"errors"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureNotFound
	LoginFailureBadCredentials
	LoginFailureProvider
	LoginFailureMint
)

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	GetUserByEmail func(ctx context.Context, email string) (UserRecord, error)
	VerifyPassword func(plaintext, hash string) (bool, error)
	Mint           func(subject string) MintResult
	NotFound       error
}

// LoginResult carries the authenticated user and issued pair, or failure
// metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	User    UserRecord
	Minted  MintResult
}

// RunLogin verifies credentials and mints a pair for the matched user.
// The lifecycle service never sees the plaintext password beyond the
// hasher call.
func RunLogin(ctx context.Context, email, plaintext string, deps LoginDeps) LoginResult {
	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return LoginResult{Failure: LoginFailureNotFound, Err: err}
		}
		return LoginResult{Failure: LoginFailureProvider, Err: err}
	}

	ok, err := deps.VerifyPassword(plaintext, user.PasswordHash)
	if err != nil {
		return LoginResult{Failure: LoginFailureProvider, Err: err}
	}
	if !ok {
		return LoginResult{Failure: LoginFailureBadCredentials}
	}

	minted := deps.Mint(user.UserID)
	if minted.Failure != MintFailureNone {
		return LoginResult{Failure: LoginFailureMint, Err: minted.Err, User: user}
	}

	return LoginResult{User: user, Minted: minted}
}
