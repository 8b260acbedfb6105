package silentauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/silentauth/silentauth/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type mockUserProvider struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	byEmail map[string]string

	getByEmailCalls int
	getByIDCalls    int
	createCalls     int
	createErr       error
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{
		users:   make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *mockUserProvider) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByEmailCalls++

	id, ok := m.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *mockUserProvider) GetUserByID(_ context.Context, id string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDCalls++

	user, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserProvider) CreateUser(_ context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return UserRecord{}, m.createErr
	}
	if _, exists := m.byEmail[input.Email]; exists {
		return UserRecord{}, fmt.Errorf("%w: %s", ErrEmailExists, input.Email)
	}

	user := UserRecord{
		UserID:       fmt.Sprintf("u%d", len(m.users)+1),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[user.UserID] = user
	m.byEmail[user.Email] = user.UserID
	return user, nil
}

func (m *mockUserProvider) delete(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[userID]; ok {
		delete(m.byEmail, user.Email)
		delete(m.users, userID)
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16
	return cfg
}

func buildTestEngine(t *testing.T) (*Engine, *mockUserProvider, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(mr.Close)

	up := newMockUserProvider()
	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserProvider(up).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, up, mr
}

func TestBuildValidation(t *testing.T) {
	_, rdb := newTestRedis(t)
	up := newMockUserProvider()

	if _, err := New().WithRedis(rdb).WithUserProvider(up).Build(); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := New().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected error for missing user provider")
	}
	if _, err := New().WithConfig(testConfig()).WithUserProvider(up).Build(); err == nil {
		t.Fatal("expected error for missing redis client")
	}

	cfg := testConfig()
	cfg.Token.RefreshTTL = cfg.Token.AccessTTL
	if _, err := New().WithConfig(cfg).WithRedis(rdb).WithUserProvider(up).Build(); err == nil {
		t.Fatal("expected error for refresh TTL not exceeding access TTL")
	}

	builder := New().WithConfig(testConfig()).WithRedis(rdb).WithUserProvider(up)
	if _, err := builder.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := builder.Build(); err == nil {
		t.Fatal("expected error on builder reuse")
	}
}

func TestMintAndValidate(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	pair, err := engine.Mint(ctx, "user-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	subject, err := engine.ValidateAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", subject)
	}

	// Kind enforcement, both directions.
	if _, err := engine.ValidateAccess(ctx, pair.RefreshToken); !errors.Is(err, ErrWrongTokenKind) {
		t.Fatalf("ValidateAccess(refresh) err = %v, want ErrWrongTokenKind", err)
	}
	if _, err := engine.Rotate(ctx, pair.AccessToken); !errors.Is(err, ErrWrongTokenKind) {
		t.Fatalf("Rotate(access) err = %v, want ErrWrongTokenKind", err)
	}
}

func TestMintPairLifetimes(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()
	before := time.Now()

	pair, err := engine.Mint(ctx, "user-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	accessClaims, err := engine.codec.Decode(pair.AccessToken)
	if err != nil {
		t.Fatalf("Decode access failed: %v", err)
	}
	refreshClaims, err := engine.codec.Decode(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Decode refresh failed: %v", err)
	}

	if got := accessClaims.ExpiresAt.Time.Sub(accessClaims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("access lifetime = %v, want 15m", got)
	}
	if got := refreshClaims.ExpiresAt.Time.Sub(refreshClaims.IssuedAt.Time); got != 7*24*time.Hour {
		t.Fatalf("refresh lifetime = %v, want 168h", got)
	}
	if !pair.AccessExpiresAt.Before(pair.RefreshExpiresAt) {
		t.Fatal("access expiry must precede refresh expiry")
	}
	if pair.AccessExpiresAt.Before(before) {
		t.Fatal("access expiry is in the past")
	}
	if accessClaims.ID == refreshClaims.ID {
		t.Fatal("access and refresh jti must differ")
	}
}

func TestMintUniqueTokenIDs(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		pair, err := engine.Mint(ctx, "user-1")
		if err != nil {
			t.Fatalf("Mint failed: %v", err)
		}
		for _, signed := range []string{pair.AccessToken, pair.RefreshToken} {
			claims, err := engine.codec.Decode(signed)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if seen[claims.ID] {
				t.Fatalf("duplicate jti %q", claims.ID)
			}
			seen[claims.ID] = true
		}
	}
}

func TestValidateAccessFailures(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	if _, err := engine.ValidateAccess(ctx, "garbage"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v, want ErrTokenMalformed", err)
	}

	expired, err := engine.codec.Encode(token.New("user-1", token.KindAccess, time.Now().Add(-time.Hour), 15*time.Minute))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := engine.ValidateAccess(ctx, expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestRotateSingleUse(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	pair, err := engine.Mint(ctx, "user-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	next, err := engine.Rotate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation returned the presented refresh token")
	}
	if _, err := engine.ValidateAccess(ctx, next.AccessToken); err != nil {
		t.Fatalf("ValidateAccess on rotated pair failed: %v", err)
	}

	// Second presentation of the consumed token is a replay.
	if _, err := engine.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("replay err = %v, want ErrTokenRevoked", err)
	}
	if got := engine.metrics.Value(MetricReplayDetected); got != 1 {
		t.Fatalf("replay counter = %d, want 1", got)
	}

	// The successor chain stays usable.
	if _, err := engine.Rotate(ctx, next.RefreshToken); err != nil {
		t.Fatalf("Rotate successor failed: %v", err)
	}
}

func TestRotateRejectsBadTokens(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Rotate(ctx, "garbage"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v, want ErrTokenMalformed", err)
	}

	expired, err := engine.codec.Encode(token.New("user-1", token.KindRefresh, time.Now().Add(-8*24*time.Hour), 7*24*time.Hour))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := engine.Rotate(ctx, expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestRotateStoreUnavailable(t *testing.T) {
	engine, _, mr := buildTestEngine(t)
	ctx := context.Background()

	pair, err := engine.Mint(ctx, "user-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	mr.Close()

	if _, err := engine.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("err = %v, want ErrRevocationUnavailable", err)
	}
}

func TestLogoutRevokesAndStaysIdempotent(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	pair, err := engine.Mint(ctx, "user-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if err := engine.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("rotate after logout err = %v, want ErrTokenRevoked", err)
	}

	// Logging out again, or with garbage, still succeeds.
	if err := engine.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("repeat Logout failed: %v", err)
	}
	if err := engine.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("Logout(garbage) failed: %v", err)
	}

	expired, err := engine.codec.Encode(token.New("user-1", token.KindRefresh, time.Now().Add(-8*24*time.Hour), 7*24*time.Hour))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := engine.Logout(ctx, expired); err != nil {
		t.Fatalf("Logout(expired) failed: %v", err)
	}
}

func TestLogoutStoreUnavailable(t *testing.T) {
	engine, _, mr := buildTestEngine(t)
	ctx := context.Background()

	pair, err := engine.Mint(ctx, "user-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	mr.Close()

	if err := engine.Logout(ctx, pair.RefreshToken); !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("err = %v, want ErrRevocationUnavailable", err)
	}
}

func registerTestUser(t *testing.T, engine *Engine) UserRecord {
	t.Helper()

	user, err := engine.Register(context.Background(), "alice@example.com", "hunter2024", "hunter2024")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}

func TestRecoverViaAccessToken(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	user := registerTestUser(t, engine)
	pair, err := engine.Mint(ctx, user.UserID)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	result := engine.Recover(ctx, pair.AccessToken, pair.RefreshToken)
	if !result.Authenticated {
		t.Fatal("expected authenticated result")
	}
	if result.Subject != user.UserID {
		t.Fatalf("subject = %q, want %q", result.Subject, user.UserID)
	}
	if result.Rotated || result.Pair != nil {
		t.Fatal("access path must not rotate")
	}
	if result.User.Email != user.Email {
		t.Fatalf("email = %q, want %q", result.User.Email, user.Email)
	}

	// The refresh token was not consumed.
	if _, err := engine.Rotate(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh token was consumed by recovery: %v", err)
	}
}

func TestRecoverFallsBackToRotation(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	user := registerTestUser(t, engine)
	pair, err := engine.Mint(ctx, user.UserID)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	expiredAccess, err := engine.codec.Encode(token.New(user.UserID, token.KindAccess, time.Now().Add(-time.Hour), 15*time.Minute))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	result := engine.Recover(ctx, expiredAccess, pair.RefreshToken)
	if !result.Authenticated {
		t.Fatal("expected authenticated result")
	}
	if !result.Rotated || result.Pair == nil {
		t.Fatal("expected rotated pair")
	}
	if _, err := engine.ValidateAccess(ctx, result.Pair.AccessToken); err != nil {
		t.Fatalf("ValidateAccess on recovered pair failed: %v", err)
	}

	// Fallback consumed the presented refresh token.
	if _, err := engine.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
}

func TestRecoverUnauthenticatedOutcomes(t *testing.T) {
	engine, up, _ := buildTestEngine(t)
	ctx := context.Background()

	if result := engine.Recover(ctx, "", ""); result.Authenticated {
		t.Fatal("no tokens must resolve to unauthenticated")
	}
	if result := engine.Recover(ctx, "garbage", "garbage"); result.Authenticated {
		t.Fatal("garbage tokens must resolve to unauthenticated")
	}

	// Valid tokens whose subject no longer exists degrade the same way.
	user := registerTestUser(t, engine)
	pair, err := engine.Mint(ctx, user.UserID)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	up.delete(user.UserID)

	if result := engine.Recover(ctx, pair.AccessToken, pair.RefreshToken); result.Authenticated {
		t.Fatal("deleted account must resolve to unauthenticated")
	}

	// A logged-out refresh with no access token cannot recover either.
	user2, err := engine.Register(ctx, "bob@example.com", "hunter2024", "hunter2024")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	pair2, err := engine.Mint(ctx, user2.UserID)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := engine.Logout(ctx, pair2.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if result := engine.Recover(ctx, "", pair2.RefreshToken); result.Authenticated {
		t.Fatal("revoked refresh must resolve to unauthenticated")
	}
}

func TestRegisterValidation(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		confirm  string
	}{
		{"empty email", "", "hunter2024", "hunter2024"},
		{"bad email", "not-an-email", "hunter2024", "hunter2024"},
		{"short password", "a@b.co", "hunt3r", "hunt3r"},
		{"no digit", "a@b.co", "hunterhunter", "hunterhunter"},
		{"mismatch", "a@b.co", "hunter2024", "hunter2025"},
	}

	for _, tc := range cases {
		if _, err := engine.Register(ctx, tc.email, tc.password, tc.confirm); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	engine, up, _ := buildTestEngine(t)
	ctx := context.Background()

	user := registerTestUser(t, engine)
	if user.UserID == "" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := engine.Register(ctx, "alice@example.com", "hunter2024", "hunter2024"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate err = %v, want ErrEmailExists", err)
	}

	loggedIn, pair, err := engine.Login(ctx, "alice@example.com", "hunter2024")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.UserID != user.UserID {
		t.Fatalf("login user = %q, want %q", loggedIn.UserID, user.UserID)
	}
	subject, err := engine.ValidateAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}
	if subject != user.UserID {
		t.Fatalf("subject = %q, want %q", subject, user.UserID)
	}

	// Wrong password and unknown email collapse to the same error.
	if _, _, err := engine.Login(ctx, "alice@example.com", "wrong-pass-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := engine.Login(ctx, "nobody@example.com", "hunter2024"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}

	if up.createCalls != 2 {
		t.Fatalf("createCalls = %d, want 2", up.createCalls)
	}
}

func TestFullLifecycle(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	user := registerTestUser(t, engine)

	_, pair, err := engine.Login(ctx, "alice@example.com", "hunter2024")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.ValidateAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}

	rotated, err := engine.Rotate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if subject, err := engine.ValidateAccess(ctx, rotated.AccessToken); err != nil || subject != user.UserID {
		t.Fatalf("ValidateAccess = (%q, %v), want (%q, nil)", subject, err, user.UserID)
	}
	if _, err := engine.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("replay err = %v, want ErrTokenRevoked", err)
	}

	if err := engine.Logout(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Rotate(ctx, rotated.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("rotate after logout err = %v, want ErrTokenRevoked", err)
	}
}

func TestMetricsCounters(t *testing.T) {
	engine, _, _ := buildTestEngine(t)
	ctx := context.Background()

	registerTestUser(t, engine)
	if _, _, err := engine.Login(ctx, "alice@example.com", "hunter2024"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, _, err := engine.Login(ctx, "alice@example.com", "wrong-pass-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	snapshot := engine.MetricsSnapshot()
	checks := map[MetricID]uint64{
		MetricRegisterSuccess: 1,
		MetricLoginSuccess:    1,
		MetricLoginFailure:    1,
		MetricMint:            1,
	}
	for id, want := range checks {
		if got := snapshot.Counters[id]; got != want {
			t.Fatalf("counter %d = %d, want %d", id, got, want)
		}
	}
}

func TestAuditEvents(t *testing.T) {
	mr, rdb := newTestRedis(t)
	t.Cleanup(mr.Close)

	sink := NewChannelSink(16)
	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserProvider(newMockUserProvider()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := context.Background()
	registerTestUser(t, engine)
	if _, _, err := engine.Login(ctx, "alice@example.com", "hunter2024"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	engine.Close()

	types := make(map[string]int)
	for {
		select {
		case event := <-sink.Events():
			types[event.EventType]++
			continue
		default:
		}
		break
	}

	if types[auditEventRegisterSuccess] != 1 {
		t.Fatalf("register events = %d, want 1", types[auditEventRegisterSuccess])
	}
	if types[auditEventLoginSuccess] != 1 {
		t.Fatalf("login events = %d, want 1", types[auditEventLoginSuccess])
	}
}

func TestEngineNotReady(t *testing.T) {
	var engine Engine
	ctx := context.Background()

	if _, err := engine.Mint(ctx, "user-1"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Mint err = %v, want ErrEngineNotReady", err)
	}
	if _, err := engine.ValidateAccess(ctx, "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("ValidateAccess err = %v, want ErrEngineNotReady", err)
	}
	if result := engine.Recover(ctx, "x", "y"); result.Authenticated {
		t.Fatal("zero engine must not authenticate")
	}
}
