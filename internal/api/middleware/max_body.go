package middleware

import (
	"net/http"

	"github.com/cloo-solutions/grootai/internal/api"
	"github.com/cloo-solutions/grootai/internal/domain"
)

// MaxBodyBytes caps request bodies at limit. A declared length over the cap
// is refused up front; chunked bodies are cut off while reading and the
// handler reports the *http.MaxBytesError through api.BadBody.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				api.JSON(w, http.StatusRequestEntityTooLarge, api.ErrorResponse{
					Error: "request body too large",
					Kind:  domain.ErrCodeValidation,
				})
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
