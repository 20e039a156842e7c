package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"linguameet/internal/model"
)

type accessVerifier interface {
	VerifyAccess(token string) (*model.TokenClaims, bool)
}

type userLoader interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

type contextKey string

const principalContextKey contextKey = "principal"

// AuthMiddleware is the per-request authentication gate: it validates
// the bearer token and resolves it to the live user row. Each
// protected request re-runs the gate; there is no server-side session
// beyond the persisted refresh token.
type AuthMiddleware struct {
	verifier accessVerifier
	users    userLoader
}

func NewAuthMiddleware(verifier accessVerifier, users userLoader) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeUnauthorized(w, "missing or invalid authorization header")
			return
		}

		token := strings.TrimSpace(header[7:])
		claims, ok := m.verifier.VerifyAccess(token)
		if !ok {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		user, err := m.users.FindByID(r.Context(), claims.Subject)
		if errors.Is(err, model.ErrUserNotFound) {
			writeUnauthorized(w, "invalid or expired token")
			return
		}
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(model.APIResponse{
				Success: false,
				Error:   &model.APIError{Code: "INTERNAL_ERROR", Message: "Unexpected server error"},
			})
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext returns the authenticated user resolved by
// RequireAuth.
func PrincipalFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(principalContextKey).(model.User)
	return user, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}
