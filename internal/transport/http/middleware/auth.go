package middleware

import (
	"net/http"
	"strings"

	"github.com/baechuer/credential-auth/internal/domain"
	"github.com/baechuer/credential-auth/internal/token"
)

type TokenVerifier interface {
	Verify(raw string) (token.Claims, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Auth verifies Authorization: Bearer <token> and injects the verified claims
// into the request context. Every codec failure is passed to writeErr as is.
func Auth(verifier TokenVerifier, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" {
				tokenVerifyTotal.WithLabelValues(domain.CodeTokenMissing).Inc()
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				tokenVerifyTotal.WithLabelValues(domain.CodeTokenMalformed).Inc()
				writeErr(w, r, domain.ErrTokenMalformed(nil))
				return
			}

			raw := strings.TrimSpace(parts[1])
			if raw == "" {
				tokenVerifyTotal.WithLabelValues(domain.CodeTokenMissing).Inc()
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				tokenVerifyTotal.WithLabelValues(errCode(err)).Inc()
				writeErr(w, r, err)
				return
			}

			tokenVerifyTotal.WithLabelValues("ok").Inc()
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
