package http_handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/baechuer/credential-auth/internal/logger"
	"github.com/baechuer/credential-auth/internal/transport/http/response"
)

const readyTimeout = 2 * time.Second

// Pinger is anything readiness depends on (credential store, redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		if err := h.deps[name].Ping(ctx); err != nil {
			lg := logger.FromContext(r.Context())
			lg.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		response.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"failed": failed,
		})
		return
	}
	response.OK(w, map[string]string{"status": "ready"})
}
