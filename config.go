package silentauth

import (
	"errors"
	"time"

	"github.com/silentauth/silentauth/token"
)

// TokenConfig controls signing and lifetime of both token kinds.
type TokenConfig struct {
	// Secret is the HMAC signing key shared by access and refresh tokens.
	Secret []byte
	// SigningMethod selects the HMAC variant: "hs256" (default) or "hs512".
	SigningMethod string
	// AccessTTL bounds how long a stolen access token stays usable. Access
	// tokens are never revocable, so keep this short.
	AccessTTL time.Duration
	// RefreshTTL bounds the maximum unattended session length.
	RefreshTTL time.Duration
	// Issuer is stamped into the iss claim and enforced on decode when set.
	Issuer string
	// Leeway absorbs clock skew between issuing and validating hosts.
	Leeway time.Duration
}

// RevocationConfig controls the Redis blacklist keyspace.
type RevocationConfig struct {
	RedisPrefix string
}

// PasswordConfig carries argon2id parameters for the registration hasher.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull trades audit completeness for request latency: a full
	// buffer drops the event (counted) instead of blocking the caller.
	DropIfFull bool
}

// MetricsConfig controls the in-process counter set.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Config is the full engine configuration. Zero value is not usable; start
// from the Builder defaults and override.
type Config struct {
	Token      TokenConfig
	Revocation RevocationConfig
	Password   PasswordConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// DefaultConfig returns the configuration the Builder starts from. The
// secret is empty and must be set before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: string(token.MethodHS256),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "rvk",
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks internal consistency. Build calls this; standalone use is
// for surfacing config errors before wiring external stores.
func (c *Config) Validate() error {
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be >= 32 bytes")
	}
	if c.Token.SigningMethod != string(token.MethodHS256) &&
		c.Token.SigningMethod != string(token.MethodHS512) {
		return errors.New("unsupported Token SigningMethod")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must exceed AccessTTL")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}
	if c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be <= 2m")
	}

	if c.Revocation.RedisPrefix == "" {
		return errors.New("Revocation RedisPrefix must not be empty")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
