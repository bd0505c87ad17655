package response

import (
	"net/http"

	reqctx "github.com/baechuer/credential-auth/internal/pkg/context"
)

// RequestIDFromContext returns the id set by middleware.RequestID, or "".
func RequestIDFromContext(r *http.Request) string {
	return reqctx.GetRequestID(r.Context())
}
