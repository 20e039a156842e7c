package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"linguameet/internal/model"
)

const internalKeyHeader = "X-Internal-Key"

// RequireInternalKey guards privileged endpoints (balance grants, audit
// listing) that are called by other platform services, not end users.
// With no key configured the endpoints are disabled outright.
func RequireInternalKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := strings.TrimSpace(r.Header.Get(internalKeyHeader))

			if key == "" || presented == "" ||
				subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(model.APIResponse{
					Success: false,
					Error:   &model.APIError{Code: "FORBIDDEN", Message: "insufficient permissions"},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
