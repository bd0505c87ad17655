package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/credential-auth/internal/transport/http/middleware"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health HealthHandler
	Auth   AuthHandler

	AuthMW      func(http.Handler) http.Handler
	BodyLimitMW func(http.Handler) http.Handler

	// Optional. Nil means the route is not rate limited.
	RLRegister func(http.Handler) http.Handler
	RLLogin    func(http.Handler) http.Handler

	// Optional. Applied to every route when set.
	SecurityHeadersMW func(http.Handler) http.Handler

	// Optional. Defaults to promhttp.Handler().
	Metrics http.Handler
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}
	if deps.BodyLimitMW == nil {
		return nil, fmt.Errorf("nil BodyLimit middleware")
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	if deps.SecurityHeadersMW != nil {
		r.Use(deps.SecurityHeadersMW)
	}

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", deps.Metrics)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(deps.BodyLimitMW)

		r.With(optional(deps.RLRegister)...).Post("/register", deps.Auth.Register)
		r.With(optional(deps.RLLogin)...).Post("/login", deps.Auth.Login)
		r.With(deps.AuthMW).Get("/me", deps.Auth.Me)
	})

	return r, nil
}

func optional(mw func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if mw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{mw}
}
