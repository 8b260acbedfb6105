package silentauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/silentauth/silentauth/internal/flows"
	"github.com/silentauth/silentauth/password"
	"github.com/silentauth/silentauth/revocation"
	"github.com/silentauth/silentauth/token"
)

// Builder assembles an [Engine]. Builders are single-use: Build consumes the
// builder and a second Build call fails.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	codec        TokenCodec
	revocations  RevocationStore
	userProvider UserProvider
	auditSink    AuditSink

	built bool
}

// New returns a builder seeded with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The config is cloned; later
// mutations of cfg do not leak into the builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the HMAC signing key without replacing the rest of the
// config.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithRedis supplies the Redis client backing the default revocation store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider supplies the account backend. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithTokenCodec overrides the default HMAC codec.
func (b *Builder) WithTokenCodec(c TokenCodec) *Builder {
	b.codec = c
	return b
}

// WithRevocationStore overrides the default Redis-backed blacklist. When set,
// no Redis client is required.
func (b *Builder) WithRevocationStore(rs RevocationStore) *Builder {
	b.revocations = rs
	return b
}

// WithAuditSink supplies the audit event consumer and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires default collaborators for any
// that were not overridden, and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	if b.revocations == nil && b.redis == nil {
		return nil, errors.New("redis client required")
	}

	engine := &Engine{
		config: cfg,
		users:  b.userProvider,
	}

	engine.codec = b.codec
	if engine.codec == nil {
		c, err := token.NewCodec(token.Config{
			Secret:        cloneBytes(cfg.Token.Secret),
			SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
			Issuer:        cfg.Token.Issuer,
			Leeway:        cfg.Token.Leeway,
		})
		if err != nil {
			return nil, err
		}
		engine.codec = c
	}

	engine.revocations = b.revocations
	if engine.revocations == nil {
		engine.revocations = revocation.NewStore(b.redis, cfg.Revocation.RedisPrefix)
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.flows = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}
