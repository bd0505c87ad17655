package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/credential-auth/internal/application/auth"
	"github.com/baechuer/credential-auth/internal/audit"
	"github.com/baechuer/credential-auth/internal/config"
	"github.com/baechuer/credential-auth/internal/infrastructure/db/postgres"
	"github.com/baechuer/credential-auth/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/credential-auth/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/credential-auth/internal/infrastructure/redis"
	"github.com/baechuer/credential-auth/internal/infrastructure/security"
	"github.com/baechuer/credential-auth/internal/logger"
	"github.com/baechuer/credential-auth/internal/token"
	http_handlers "github.com/baechuer/credential-auth/internal/transport/http/handlers"
	"github.com/baechuer/credential-auth/internal/transport/http/middleware"
	"github.com/baechuer/credential-auth/internal/transport/http/response"
	"github.com/baechuer/credential-auth/internal/transport/http/router"
)

// Fixed-window limits applied when RATE_LIMIT_ENABLED is set.
const (
	registerLimit = 3
	loginLimit    = 5
	limitWindow   = time.Minute
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(url, exchange string) (Publisher, error)

	NewRouter func(router.Deps) (http.Handler, error)

	Log zerolog.Logger
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

type Publisher interface {
	auth.EventPublisher
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	lg := deps.Log

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) credential store
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	readiness := map[string]http_handlers.Pinger{}

	var store interface {
		auth.CredentialStore
		postgres.Seeder
		http_handlers.Pinger
	}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		lg.Warn().Msg("using in-memory credential store; accounts are lost on restart")
		store = memory.NewCredentialStore(hasher)
	default:
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return fail(fmt.Errorf("bootstrap: open db: %w", err))
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := deps.Migrate(ctx, db)
			cancel()
			if err != nil {
				return fail(fmt.Errorf("bootstrap: %w", err))
			}
			lg.Info().Msg("migrations applied")
		}
		store = postgres.NewCredentialStore(db, hasher)
	}
	readiness["store"] = store

	// 2) token codec
	codec, err := token.NewCodec(cfg.TokenConfig())
	if err != nil {
		return fail(fmt.Errorf("bootstrap: %w", err))
	}
	lg.Info().
		Str("issuer", cfg.JWTIssuer).
		Dur("lifetime", codec.Lifetime()).
		Msg("token codec ready")

	// 3) redis (best-effort, only used by the limiter)
	var redisCli RedisClient
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; rate limiting disabled")
			_ = c.Close()
		} else {
			lg.Info().Msg("redis connected")
			redisCli = c
			readiness["redis"] = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 4) publisher
	var pub auth.EventPublisher = memory.NewNoopPublisher(lg)
	if cfg.RabbitURL != "" {
		p, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		switch {
		case err == nil:
			pub = p
			cleanupFns = append(cleanupFns, func() { _ = p.Close() })
		case cfg.IsDev():
			lg.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
		default:
			return fail(fmt.Errorf("bootstrap: rabbitmq: %w", err))
		}
	}

	// seed (dev only)
	if cfg.IsDev() {
		postgres.SeedUsers(context.Background(), store, postgres.DevSeedUsers, lg)
	}

	// 5) service
	auditLog := audit.New(lg)
	authSvc := auth.NewService(store, codec, auth.Config{
		StoreTimeout:   cfg.StoreTimeout,
		PublishTimeout: cfg.EventPublishTimeout,
	}).
		WithEvents(pub).
		WithAudit(func(action string, fields map[string]string) {
			auditLog.Record(action, fields)
			middleware.RecordAuthAction(action)
		})

	// 6) handlers + middleware
	authH := http_handlers.NewAuthHandler(authSvc)
	healthH := http_handlers.NewHealthHandler(readiness)

	var limiter middleware.RateLimiter
	if rc, ok := redisCli.(*redis.Client); ok && cfg.RateLimitEnabled {
		limiter = redis.NewFixedWindowLimiter(rc)
	}
	rl := func(key string, limit int) func(http.Handler) http.Handler {
		if limiter == nil {
			return nil
		}
		return middleware.RateLimitFixedWindow(limiter, middleware.FixedWindowConfig{
			RouteKey: key,
			Limit:    limit,
			Window:   limitWindow,
		}, response.WriteError)
	}

	// 7) router
	var secMW func(http.Handler) http.Handler
	if cfg.SecurityHeaders {
		secMW = middleware.SecurityHeaders(cfg.IsProd())
	}

	mux, err := deps.NewRouter(router.Deps{
		Health:      healthH,
		Auth:        authH,
		AuthMW:      middleware.Auth(codec, response.WriteError),
		BodyLimitMW: middleware.BodyLimit(middleware.DefaultMaxBodyBytes, response.WriteError),
		RLRegister:  rl("auth.register", registerLimit),
		RLLogin:     rl("auth.login", loginLimit),

		SecurityHeadersMW: secMW,
	})
	if err != nil {
		return fail(err)
	}

	// 8) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB: func(addr string, debug bool) (*sql.DB, error) {
			return config.NewDB(addr, debug, logger.Logger)
		},
		Migrate: postgres.RunMigrations,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url, exchange string) (Publisher, error) {
			return rabbitmq_pub.NewPublisher(url, exchange)
		},
		NewRouter: router.New,
		Log:       logger.Logger,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
