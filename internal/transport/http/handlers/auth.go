package http_handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/credential-auth/internal/application/auth"
	"github.com/baechuer/credential-auth/internal/domain"
	"github.com/baechuer/credential-auth/internal/logger"
	"github.com/baechuer/credential-auth/internal/transport/http/dto"
	"github.com/baechuer/credential-auth/internal/transport/http/middleware"
	"github.com/baechuer/credential-auth/internal/transport/http/response"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (auth.Result, error)
	Login(ctx context.Context, in auth.LoginInput) (auth.Result, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), req.ToInput())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	lg := logger.FromContext(r.Context())
	lg.Info().Str("user_name", res.UserName).Msg("user_registered")

	response.OK(w, dto.NewAuthResponse(res))
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.ToInput())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.NewAuthResponse(res))
}

// Me handles GET /api/auth/me. It must sit behind middleware.Auth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	response.OK(w, dto.NewMeResponse(claims))
}
