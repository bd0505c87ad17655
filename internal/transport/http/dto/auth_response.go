package dto

import (
	"github.com/baechuer/credential-auth/internal/application/auth"
	"github.com/baechuer/credential-auth/internal/token"
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
	Token    string `json:"token"`
}

func NewAuthResponse(res auth.Result) AuthResponse {
	return AuthResponse{Email: res.Email, UserName: res.UserName, Token: res.Token}
}

// MeResponse echoes the identity carried by a verified bearer token.
type MeResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
}

func NewMeResponse(c token.Claims) MeResponse {
	return MeResponse{ID: c.Subject, Email: c.Email, UserName: c.DisplayName, Role: c.Role}
}
