package middleware

import (
	"net/http"

	"github.com/baechuer/credential-auth/internal/domain"
)

// DefaultMaxBodyBytes is 1 MiB.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over
// the limit is rejected up front; anything else is cut off by
// http.MaxBytesReader and surfaces from the JSON decoder.
func BodyLimit(maxBytes int64, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeErr(w, r, domain.ErrBodyTooLarge(maxBytes))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
