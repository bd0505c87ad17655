package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/baechuer/credential-auth/internal/domain"
)

// DecodeJSON decodes a JSON request body into dst.
// It rejects multiple JSON values. Unknown fields are ignored.
// A body cut short by http.MaxBytesReader yields body_too_large.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return decodeErr(err)
	}

	// Disallow trailing data: {}{}
	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return decodeErr(err)
	}

	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}

func decodeErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.ErrBodyTooLarge(tooLarge.Limit)
	}
	return domain.ErrInvalidJSON(err)
}
