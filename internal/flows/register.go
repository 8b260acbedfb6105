package flows

import (
	"context"
	"errors"
	"regexp"
)

// RegisterFailureKind classifies registration failures for root-level
// mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureValidation
	RegisterFailureDuplicate
	RegisterFailureHash
	RegisterFailureProvider
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// RegisterDeps captures registration flow dependencies.
type RegisterDeps struct {
	HashPassword func(plaintext string) (string, error)
	CreateUser   func(ctx context.Context, email, passwordHash string) (UserRecord, error)
	Duplicate    error
}

// RegisterResult carries the created user or failure metadata.
type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
	User    UserRecord
}

// RunRegister validates the sign-up input, hashes the password, and
// persists the user through the provider.
func RunRegister(ctx context.Context, email, password, passwordConfirm string, deps RegisterDeps) RegisterResult {
	if err := validateRegistration(email, password, passwordConfirm); err != nil {
		return RegisterResult{Failure: RegisterFailureValidation, Err: err}
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: err}
	}

	user, err := deps.CreateUser(ctx, email, hash)
	if err != nil {
		if deps.Duplicate != nil && errors.Is(err, deps.Duplicate) {
			return RegisterResult{Failure: RegisterFailureDuplicate, Err: err}
		}
		return RegisterResult{Failure: RegisterFailureProvider, Err: err}
	}

	return RegisterResult{User: user}
}

func validateRegistration(email, password, passwordConfirm string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if password != passwordConfirm {
		return errors.New("passwords do not match")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !containsDigit(password) {
		return errors.New("password must contain a number")
	}
	return nil
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
