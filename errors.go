package silentauth

import "errors"

var (
	// ErrTokenMalformed reports a token that failed signature or structural
	// checks. Deliberately coarse: it never reveals which check failed.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired reports a structurally valid, correctly signed token
	// whose lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenKind reports a valid token presented to an operation that
	// requires the other kind.
	ErrWrongTokenKind = errors.New("wrong token kind")
	// ErrTokenRevoked reports a refresh token that was already rotated or
	// logged out. Treat occurrences as possible replay.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRevocationUnavailable reports a revocation store failure. Operations
	// fail closed rather than skipping the blacklist.
	ErrRevocationUnavailable = errors.New("revocation store unavailable")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists reports a registration attempt for an email that is
	// already taken.
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound is the sentinel user providers must return when no
	// record matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrValidation wraps registration input failures (email format, password
	// policy, confirmation mismatch).
	ErrValidation = errors.New("invalid registration input")
	// ErrEngineNotReady reports use of an Engine that was not produced by
	// Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)
