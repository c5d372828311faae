package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/pep299/subreddit-digest/internal/transport/response"
)

// Auth guards POST trigger endpoints with a bearer token.
// An empty token disables the check.
func Auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				response.WriteMethodNotAllowed(w, "Method not allowed")
				return
			}

			if token != "" {
				got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
				if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
					response.WriteError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
