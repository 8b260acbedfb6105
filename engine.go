package silentauth

import (
	"context"
	"fmt"
	"time"

	"github.com/silentauth/silentauth/internal/flows"
	"github.com/silentauth/silentauth/password"
)

// Engine is the authentication engine. Build one through [Builder.Build];
// after that every method is safe for concurrent use. The zero Engine is not
// usable.
type Engine struct {
	config       Config
	codec        TokenCodec
	revocations  RevocationStore
	users        UserProvider
	passwordHash *password.Argon2
	audit        *auditDispatcher
	metrics      *Metrics
	flows        flows.Service
}

// Close flushes and stops the audit dispatcher. Token operations remain
// usable afterwards; they just stop emitting audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under buffer
// pressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters for export.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Mint issues a fresh access+refresh pair for subject without any credential
// check. Callers own the decision that subject is authenticated; Login and
// Rotate call this internally.
func (e *Engine) Mint(ctx context.Context, subject string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	if subject == "" {
		return TokenPair{}, fmt.Errorf("%w: subject required", ErrValidation)
	}

	res := e.flows.Mint(subject)
	if res.Failure != flows.MintFailureNone {
		return TokenPair{}, res.Err
	}

	e.metricInc(MetricMint)
	e.emitAudit(ctx, auditEventMint, true, subject, res.AccessClaims.ID, nil, nil)

	return pairFromMint(res), nil
}

// ValidateAccess verifies an access token and returns its subject. This is
// the hot path: no revocation lookup, no provider lookup, pure computation.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	start := time.Now()
	res := e.flows.ValidateAccess(accessToken)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	switch res.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateSuccess)
		return res.Subject, nil
	case flows.ValidateFailureExpired:
		e.metricInc(MetricValidateFailure)
		return "", ErrTokenExpired
	case flows.ValidateFailureWrongKind:
		e.metricInc(MetricValidateFailure)
		return "", ErrWrongTokenKind
	default:
		e.metricInc(MetricValidateFailure)
		return "", ErrTokenMalformed
	}
}

// Rotate exchanges a refresh token for a new pair and revokes the presented
// token for its remaining lifetime. A second rotation of the same token
// returns [ErrTokenRevoked]; treat that as a possible replay.
func (e *Engine) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Rotate(ctx, refreshToken)

	switch res.Failure {
	case flows.RotateFailureNone:
	case flows.RotateFailureExpired:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.TokenID, ErrTokenExpired, nil)
		return TokenPair{}, ErrTokenExpired
	case flows.RotateFailureWrongKind:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.TokenID, ErrWrongTokenKind, nil)
		return TokenPair{}, ErrWrongTokenKind
	case flows.RotateFailureRevoked:
		e.metricInc(MetricRotateFailure)
		e.metricInc(MetricReplayDetected)
		e.emitAudit(ctx, auditEventReplayDetected, false, res.Subject, res.TokenID, ErrTokenRevoked, nil)
		return TokenPair{}, ErrTokenRevoked
	case flows.RotateFailureStore:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.TokenID, ErrRevocationUnavailable, nil)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrRevocationUnavailable, res.Err)
	case flows.RotateFailureMint:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.TokenID, res.Err, nil)
		return TokenPair{}, res.Err
	default:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.TokenID, ErrTokenMalformed, nil)
		return TokenPair{}, ErrTokenMalformed
	}

	e.metricInc(MetricRotateSuccess)
	e.metricInc(MetricMint)
	e.emitAudit(ctx, auditEventRotateSuccess, true, res.Subject, res.TokenID, nil, func() map[string]string {
		return map[string]string{
			"new_token_id": res.Minted.AccessClaims.ID,
		}
	})

	return pairFromMint(res.Minted), nil
}

// Logout revokes a refresh token for its remaining lifetime. It is
// idempotent: garbage, expired, and already-revoked tokens all succeed
// without a store write. Only a revocation store failure returns an error.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, refreshToken)
	if res.Err != nil {
		e.emitAudit(ctx, auditEventLogout, false, res.Subject, res.TokenID, ErrRevocationUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, res.Err)
	}

	e.metricInc(MetricLogout)
	if res.Revoked {
		e.metricInc(MetricLogoutRevoked)
	}
	e.emitAudit(ctx, auditEventLogout, true, res.Subject, res.TokenID, nil, nil)

	return nil
}

// Recover re-establishes a session from whatever tokens the client still
// holds: the access token first, then a refresh rotation. Recover never
// fails: an unusable token set resolves to an unauthenticated result, and
// a subject whose account no longer exists degrades the same way.
func (e *Engine) Recover(ctx context.Context, accessToken, refreshToken string) RecoveryResult {
	if !e.ready() {
		return RecoveryResult{}
	}

	res := e.flows.Recover(ctx, accessToken, refreshToken)

	switch res.Outcome {
	case flows.RecoverViaAccess:
		e.metricInc(MetricRecoverViaAccess)
		e.emitAudit(ctx, auditEventRecoverResolved, true, res.Subject, "", nil, nil)
		return RecoveryResult{
			Authenticated: true,
			Subject:       res.Subject,
			User:          userFromFlow(res.User),
		}
	case flows.RecoverViaRotation:
		e.metricInc(MetricRecoverViaRotation)
		e.metricInc(MetricMint)
		e.emitAudit(ctx, auditEventRecoverResolved, true, res.Subject, res.Minted.AccessClaims.ID, nil, nil)
		pair := pairFromMint(res.Minted)
		return RecoveryResult{
			Authenticated: true,
			Subject:       res.Subject,
			User:          userFromFlow(res.User),
			Rotated:       true,
			Pair:          &pair,
		}
	default:
		e.metricInc(MetricRecoverUnauthenticated)
		e.emitAudit(ctx, auditEventRecoverNoSession, true, "", "", nil, nil)
		return RecoveryResult{}
	}
}

// Login verifies credentials and issues a pair. Unknown email and wrong
// password both return [ErrInvalidCredentials] so responses cannot be used
// to probe which accounts exist.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (UserRecord, TokenPair, error) {
	if !e.ready() {
		return UserRecord{}, TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Login(ctx, email, plaintext)

	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureNotFound, flows.LoginFailureBadCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": email,
			}
		})
		return UserRecord{}, TokenPair{}, ErrInvalidCredentials
	default:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", res.Err, nil)
		return UserRecord{}, TokenPair{}, res.Err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricMint)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.User.UserID, res.Minted.AccessClaims.ID, nil, nil)

	return userFromFlow(res.User), pairFromMint(res.Minted), nil
}

// Register validates sign-up input, hashes the password with argon2id, and
// creates the account through the user provider. It does not log the new
// account in; callers chain Login (or Mint) when auto-login is wanted.
func (e *Engine) Register(ctx context.Context, email, plaintext, confirm string) (UserRecord, error) {
	if !e.ready() {
		return UserRecord{}, ErrEngineNotReady
	}

	res := e.flows.Register(ctx, email, plaintext, confirm)

	switch res.Failure {
	case flows.RegisterFailureNone:
	case flows.RegisterFailureValidation:
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrValidation, nil)
		return UserRecord{}, fmt.Errorf("%w: %v", ErrValidation, res.Err)
	case flows.RegisterFailureDuplicate:
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", "", ErrEmailExists, func() map[string]string {
			return map[string]string{
				"identifier": email,
			}
		})
		return UserRecord{}, ErrEmailExists
	default:
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", res.Err, nil)
		return UserRecord{}, res.Err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, res.User.UserID, "", nil, nil)

	return userFromFlow(res.User), nil
}

// flowDeps wires the immutable dependency sets the flow service runs on.
// Closures adapt engine collaborators to the narrow contracts the flows
// declare, so the flows package never imports this one.
func (e *Engine) flowDeps() flows.Deps {
	mintDeps := flows.MintDeps{
		Now:        time.Now,
		AccessTTL:  e.config.Token.AccessTTL,
		RefreshTTL: e.config.Token.RefreshTTL,
		Codec:      e.codec,
	}
	mint := func(subject string) flows.MintResult {
		return flows.RunMint(subject, mintDeps)
	}

	validateDeps := flows.ValidateDeps{Codec: e.codec}

	rotateDeps := flows.RotateDeps{
		Now:         time.Now,
		Codec:       e.codec,
		Revocations: e.revocations,
		Mint:        mint,
	}

	return flows.Deps{
		Mint:     mintDeps,
		Validate: validateDeps,
		Rotate:   rotateDeps,
		Logout: flows.LogoutDeps{
			Now:         time.Now,
			Codec:       e.codec,
			Revocations: e.revocations,
		},
		Recover: flows.RecoverDeps{
			ValidateAccess: func(tokenStr string) flows.ValidateResult {
				return flows.RunValidateAccess(tokenStr, validateDeps)
			},
			Rotate: func(ctx context.Context, refreshToken string) flows.RotateResult {
				return flows.RunRotate(ctx, refreshToken, rotateDeps)
			},
			FetchProfile: func(ctx context.Context, subject string) (flows.UserRecord, error) {
				user, err := e.users.GetUserByID(ctx, subject)
				if err != nil {
					return flows.UserRecord{}, err
				}
				return flowUser(user), nil
			},
		},
		Login: flows.LoginDeps{
			GetUserByEmail: func(ctx context.Context, email string) (flows.UserRecord, error) {
				user, err := e.users.GetUserByEmail(ctx, email)
				if err != nil {
					return flows.UserRecord{}, err
				}
				return flowUser(user), nil
			},
			VerifyPassword: e.passwordHash.Verify,
			Mint:           mint,
			NotFound:       ErrUserNotFound,
		},
		Register: flows.RegisterDeps{
			HashPassword: e.passwordHash.Hash,
			CreateUser: func(ctx context.Context, email, passwordHash string) (flows.UserRecord, error) {
				user, err := e.users.CreateUser(ctx, CreateUserInput{
					Email:        email,
					PasswordHash: passwordHash,
				})
				if err != nil {
					return flows.UserRecord{}, err
				}
				return flowUser(user), nil
			},
			Duplicate: ErrEmailExists,
		},
	}
}

func pairFromMint(m flows.MintResult) TokenPair {
	return TokenPair{
		AccessToken:      m.AccessToken,
		RefreshToken:     m.RefreshToken,
		AccessExpiresAt:  m.AccessClaims.ExpiresAt.Time,
		RefreshExpiresAt: m.RefreshClaims.ExpiresAt.Time,
	}
}

func userFromFlow(u flows.UserRecord) UserRecord {
	return UserRecord{
		UserID:       u.UserID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    time.Unix(u.CreatedAt, 0).UTC(),
	}
}

func flowUser(u UserRecord) flows.UserRecord {
	return flows.UserRecord{
		UserID:       u.UserID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.Unix(),
	}
}
