package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates access tokens from refresh tokens inside the signed
// claim set.
type Kind string

const (
	// KindAccess marks a short-lived credential used on regular requests.
	KindAccess Kind = "access"
	// KindRefresh marks a long-lived, single-use credential exchanged for
	// a new pair.
	KindRefresh Kind = "refresh"
)

// SigningMethod selects the HMAC algorithm used to sign tokens.
type SigningMethod string

const (
	// MethodHS256 is an exported constant selecting HMAC-SHA256 signing.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS512 is an exported constant selecting HMAC-SHA512 signing.
	MethodHS512 SigningMethod = "hs512"
)

var (
	// ErrExpired reports a structurally valid token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrMalformed reports a token with a bad signature, wrong algorithm,
	// or broken structure.
	ErrMalformed = errors.New("token malformed")
)

// Config carries the shared secret and signing parameters for a [Codec].
//
// Config instances are intended to be set during initialization and then
// treated as immutable.
type Config struct {
	Secret        []byte
	SigningMethod SigningMethod
	Issuer        string
	Leeway        time.Duration
}

// Claims is the claim set embedded in every issued token. Timestamps are
// numeric (seconds since epoch) so any conforming decoder parses them
// identically.
type Claims struct {
	Kind Kind `json:"type"`
	jwt.RegisteredClaims
}

// TokenID returns the jti claim, the key used for revocation.
func (c *Claims) TokenID() string {
	return c.ID
}

// New builds a claim set for subject with a fresh uuid jti,
// iat = now and exp = now + ttl.
func New(subject string, kind Kind, now time.Time, ttl time.Duration) Claims {
	return Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Codec signs claim sets into opaque strings and verifies them back.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	switch cfg.SigningMethod {
	case MethodHS256, MethodHS512:
	case "":
		cfg.SigningMethod = MethodHS256
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Encode signs claims with the configured secret. It fails only on
// unrepresentable input, never in normal operation.
func (c *Codec) Encode(claims Claims) (string, error) {
	if c.config.Issuer != "" && claims.Issuer == "" {
		claims.Issuer = c.config.Issuer
	}
	return jwt.NewWithClaims(c.method(), claims).SignedString(c.config.Secret)
}

// Decode verifies the signature and structural validity of signed and
// returns the embedded claims. Failures are classified into [ErrExpired]
// or [ErrMalformed].
func (c *Codec) Decode(signed string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(signed, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing sub or jti", ErrMalformed)
	}
	switch claims.Kind {
	case KindAccess, KindRefresh:
	default:
		return nil, fmt.Errorf("%w: unknown token kind", ErrMalformed)
	}

	return claims, nil
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS512:
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
