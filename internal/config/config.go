package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/credential-auth/internal/token"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	minSigningKeyLength = 32
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr string

	// Token
	JWTSigningKey    string
	JWTIssuer        string
	JWTAudience      string
	JWTTokenLifetime time.Duration
	JWTClockSkew     time.Duration

	// Credential store
	StoreDriver  string
	StoreTimeout time.Duration
	BcryptCost   int
	DBAddr       string
	DBDebug      bool
	DBMigrate    bool

	// Optional infrastructure
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RateLimitEnabled bool
	RabbitURL        string
	RabbitExchange   string

	EventPublishTimeout time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	SecurityHeaders  bool
}

// Load reads the environment, after merging an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "auth.events"),
	}

	if err := loadToken(cfg); err != nil {
		return nil, err
	}

	var err error
	// credential store
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		cfg.DBAddr = os.Getenv("DB_ADDR")
		if cfg.DBAddr == "" {
			return nil, fmt.Errorf("missing required env var: DB_ADDR")
		}
		if err := validatePostgresDSN(cfg.DBAddr); err != nil {
			return nil, err
		}
	case StoreDriverMemory:
		cfg.DBAddr = os.Getenv("DB_ADDR")
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}

	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.DBMigrate, err = getBool("DB_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.EventPublishTimeout, err = getDuration("EVENT_PUBLISH_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitEnabled, err = getBool("RATE_LIMIT_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.RateLimitEnabled && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("RATE_LIMIT_ENABLED requires REDIS_ADDR")
	}

	if cfg.SecurityHeaders, err = getBool("SECURITY_HEADERS_ENABLED", true); err != nil {
		return nil, err
	}

	//Timeout values are optional and have a default value if not
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProd gates production-only hardening such as HSTS.
func (c *Config) IsProd() bool { return c.Env == "prod" }

// IsDev reports whether dev-only behaviour (seeding, noop publisher fallback) is allowed.
func (c *Config) IsDev() bool { return c.Env == "dev" }

// TokenConfig is the codec configuration derived from the JWT_* variables.
func (c *Config) TokenConfig() token.Config {
	return token.Config{
		SigningKey: []byte(c.JWTSigningKey),
		Issuer:     c.JWTIssuer,
		Audience:   c.JWTAudience,
		Lifetime:   c.JWTTokenLifetime,
		ClockSkew:  c.JWTClockSkew,
	}
}

// LoadToken reads only the JWT_* variables. Used by tools that mint tokens
// without a credential store.
func LoadToken() (token.Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := loadToken(cfg); err != nil {
		return token.Config{}, err
	}
	return cfg.TokenConfig(), nil
}

func loadToken(cfg *Config) error {
	var err error
	// required values
	cfg.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")
	if cfg.JWTSigningKey == "" {
		return fmt.Errorf("missing required env var: JWT_SIGNING_KEY")
	}
	if len(cfg.JWTSigningKey) < minSigningKeyLength {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least %d bytes", minSigningKeyLength)
	}
	cfg.JWTIssuer = os.Getenv("JWT_ISSUER")
	if cfg.JWTIssuer == "" {
		return fmt.Errorf("missing required env var: JWT_ISSUER")
	}
	cfg.JWTAudience = os.Getenv("JWT_AUDIENCE")
	if cfg.JWTAudience == "" {
		return fmt.Errorf("missing required env var: JWT_AUDIENCE")
	}

	if cfg.JWTTokenLifetime, err = getDuration("JWT_TOKEN_LIFETIME", time.Minute); err != nil {
		return err
	}
	if cfg.JWTTokenLifetime <= 0 {
		return fmt.Errorf("JWT_TOKEN_LIFETIME must be positive")
	}
	if cfg.JWTClockSkew, err = getDuration("JWT_CLOCK_SKEW", 0); err != nil {
		return err
	}
	if cfg.JWTClockSkew < 0 {
		return fmt.Errorf("JWT_CLOCK_SKEW must not be negative")
	}
	return nil
}

func validatePostgresDSN(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("invalid DB_ADDR: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("DB_ADDR must be a postgres:// URL, got scheme %q", u.Scheme)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}
