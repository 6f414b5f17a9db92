package middleware

import (
	"context"
	"net/http"

	"github.com/ironvault/api/pkg/auth"
	"github.com/ironvault/api/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user ID
	UserIDKey ContextKey = "user_id"
	// UserRoleKey is the context key for the authenticated user's global role
	UserRoleKey ContextKey = "user_role"
)

// Auth validates the bearer token and stores the acting-user identity in the
// request context. Requests without a valid token never reach permission code.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractTokenFromHeader(r)
			if err != nil {
				response.Unauthorized(w, "Authorization header required")
				return
			}

			claims, err := jwtManager.Verify(token)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the acting user's ID from the request context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserRole extracts the acting user's global role from the request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
