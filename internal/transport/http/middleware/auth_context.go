package middleware

import (
	"context"

	"github.com/baechuer/credential-auth/internal/token"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

func WithClaims(ctx context.Context, c token.Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

// ClaimsFromContext returns the claims stored by Auth. ok is false when the
// route is not behind Auth.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(token.Claims)
	return c, ok && c.Subject != ""
}

// UserIDFromContext is shorthand for the verified subject.
func UserIDFromContext(ctx context.Context) (string, bool) {
	c, ok := ClaimsFromContext(ctx)
	return c.Subject, ok
}
