package dto

import "github.com/baechuer/credential-auth/internal/application/auth"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) ToInput() auth.RegisterInput {
	return auth.RegisterInput{UserName: r.UserName, Email: r.Email, Password: r.Password}
}

// LoginRequest is the body of POST /api/auth/login. UserName may hold
// either a username or an email.
type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

func (r LoginRequest) ToInput() auth.LoginInput {
	return auth.LoginInput{UserName: r.UserName, Password: r.Password}
}
