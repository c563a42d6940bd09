package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

type contextKey string

const userContextKey contextKey = "user_id"

// Middleware creates JWT authentication middleware. It accepts access
// tokens only; refresh tokens are rejected even though they carry a valid
// signature.
func Middleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			userID, err := issuer.Verify(parts[1], TokenTypeAccess)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user ID from request context. The
// zero ID means the request did not pass through the auth middleware.
func GetUserID(ctx context.Context) types.ID {
	id, ok := ctx.Value(userContextKey).(types.ID)
	if !ok {
		return ""
	}
	return id
}

// WithUserID returns a context carrying the given user ID. Tests use this
// to call handlers without minting real tokens.
func WithUserID(ctx context.Context, id types.ID) context.Context {
	return context.WithValue(ctx, userContextKey, id)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
