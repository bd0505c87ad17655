// Package token issues and verifies the HMAC-signed bearer tokens handed out
// after a successful register or login.
package token

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/credential-auth/internal/domain"
)

const (
	// DefaultLifetime is how long an issued token stays valid.
	DefaultLifetime = time.Minute

	// MinKeyLength is the shortest accepted HMAC secret, in bytes.
	MinKeyLength = 32
)

var signingMethod = jwt.SigningMethodHS512

// Config is loaded once at startup and never changes for the life of a Codec.
type Config struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	Lifetime   time.Duration
	// ClockSkew is the grace period applied to exp/nbf checks. Zero by default.
	ClockSkew time.Duration
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec is safe for concurrent use.
type Codec struct {
	key       []byte
	issuer    string
	audience  string
	lifetime  time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.SigningKey) < MinKeyLength {
		return nil, fmt.Errorf("token: signing key must be at least %d bytes, got %d", MinKeyLength, len(cfg.SigningKey))
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token: issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("token: audience is required")
	}
	if cfg.Lifetime == 0 {
		cfg.Lifetime = DefaultLifetime
	}
	if cfg.Lifetime < 0 {
		return nil, fmt.Errorf("token: lifetime must be positive, got %s", cfg.Lifetime)
	}
	if cfg.ClockSkew < 0 {
		return nil, fmt.Errorf("token: clock skew must not be negative, got %s", cfg.ClockSkew)
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	c := &Codec{
		key:       key,
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		lifetime:  cfg.Lifetime,
		clockSkew: cfg.ClockSkew,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lifetime returns the configured token lifetime.
func (c *Codec) Lifetime() time.Duration { return c.lifetime }

// Issue signs a claims set for u. Email and username may be empty.
func (c *Codec) Issue(u *domain.User) (string, error) {
	if u == nil {
		return "", domain.ErrInvalidInput("user is required")
	}
	if u.ID == "" {
		return "", domain.ErrInvalidInput("user id is required")
	}

	now := c.now()
	email := u.Email
	name := u.UserName
	role := string(domain.RoleUser)

	claims := signedClaims{
		Email:     &email,
		GivenName: &name,
		Role:      &role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.key)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

// Verify checks structure, signature, required claims, lifetime, issuer and
// audience, in that order. Every failure is a terminal domain.KindAuth error.
func (c *Codec) Verify(raw string) (Claims, error) {
	var sc signedClaims
	_, err := jwt.ParseWithClaims(raw, &sc, c.keyFunc,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if err := c.validate(&sc); err != nil {
		return Claims{}, err
	}
	return sc.toClaims(), nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	// prevent alg confusion
	if t.Method != signingMethod {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return c.key, nil
}

func (c *Codec) validate(sc *signedClaims) error {
	if claim := sc.missingClaim(); claim != "" {
		return domain.ErrTokenMissingClaims(claim)
	}

	now := c.now()
	if now.After(sc.ExpiresAt.Time.Add(c.clockSkew)) {
		return domain.ErrTokenExpired()
	}
	if sc.NotBefore != nil && now.Add(c.clockSkew).Before(sc.NotBefore.Time) {
		return domain.ErrTokenNotYetValid()
	}
	if sc.Issuer != c.issuer {
		return domain.ErrTokenIssuerMismatch()
	}
	if !slices.Contains(sc.Audience, c.audience) {
		return domain.ErrTokenAudienceMismatch()
	}
	return nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.ErrTokenMalformed(err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenInvalidSignature(err)
	default:
		return domain.ErrTokenMalformed(err)
	}
}
