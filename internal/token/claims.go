package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified identity carried by a token.
type Claims struct {
	Subject     string
	Email       string
	DisplayName string
	Role        string
	Issuer      string
	Audience    []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// signedClaims is the wire form. The identity claims are pointers so a
// claim that is present but empty can be told apart from a missing one.
type signedClaims struct {
	Email     *string `json:"email,omitempty"`
	GivenName *string `json:"given_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (sc *signedClaims) missingClaim() string {
	switch {
	case sc.Subject == "":
		return "sub"
	case sc.Email == nil:
		return "email"
	case sc.GivenName == nil:
		return "given_name"
	case sc.Role == nil || *sc.Role == "":
		return "role"
	case sc.ExpiresAt == nil:
		return "exp"
	default:
		return ""
	}
}

func (sc *signedClaims) toClaims() Claims {
	c := Claims{
		Subject:     sc.Subject,
		Email:       deref(sc.Email),
		DisplayName: deref(sc.GivenName),
		Role:        deref(sc.Role),
		Issuer:      sc.Issuer,
		Audience:    []string(sc.Audience),
	}
	if sc.IssuedAt != nil {
		c.IssuedAt = sc.IssuedAt.Time
	}
	if sc.ExpiresAt != nil {
		c.ExpiresAt = sc.ExpiresAt.Time
	}
	return c
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
