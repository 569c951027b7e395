package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"fireops/auth"
	"fireops/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// UserLookup resolves the user named by a token.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware resolves the bearer token to a stored user and puts it in
// the request context. The user is reloaded on every request so role
// changes apply immediately.
func AuthMiddleware(jwtManager *auth.JWTManager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, msg := authenticate(r, jwtManager, users)
			if user == nil {
				writeError(w, msg, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// authenticate returns the caller or the message explaining the rejection.
func authenticate(r *http.Request, jwtManager *auth.JWTManager, users UserLookup) (*models.User, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, "Authentication required"
	}
	token, err := auth.ExtractToken(header)
	if err != nil {
		return nil, "Invalid authorization header"
	}
	claims, err := jwtManager.ValidateToken(token)
	if err != nil {
		return nil, "Invalid or expired token"
	}
	user, err := users.GetUser(r.Context(), claims.UserID)
	if err != nil || user == nil {
		LoggerFrom(r.Context()).Warn().Err(err).Str("user_id", claims.UserID).Msg("token user lookup failed")
		return nil, "Unknown user"
	}
	return user, ""
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUserFromContext returns the authenticated user, if any.
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// RequireRole rejects users without one of the allowed roles.
func RequireRole(allowedRoles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			switch {
			case !ok:
				writeError(w, "Authentication required", http.StatusUnauthorized)
			case !slices.Contains(allowedRoles, user.Role):
				writeError(w, "Insufficient permissions", http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
