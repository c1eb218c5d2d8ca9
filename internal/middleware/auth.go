package middleware

import (
	"context"
	"net/http"
	"strings"

	"invoice-backend/internal/auth"
	"invoice-backend/internal/models"
	"invoice-backend/pkg/utils"
)

type contextKey string

const UserKey contextKey = "user"

// UserResolver turns a bearer token into the user it was issued for.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

type AuthMiddleware struct {
	users UserResolver
}

func NewAuthMiddleware(users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	utils.Error(w, http.StatusUnauthorized, "Could not validate credentials")
}

// Authenticate requires a valid bearer token and puts its user in the context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w)
			return
		}
		user, err := m.users.CurrentUser(r.Context(), token)
		if err != nil {
			unauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTier rejects users below required. It runs after Authenticate.
func RequireTier(required auth.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			if user == nil {
				unauthorized(w)
				return
			}
			tier := auth.TierOf(user)
			if tier.Allows(required) {
				next.ServeHTTP(w, r)
				return
			}
			if !user.IsActive {
				utils.Error(w, http.StatusForbidden, "Inactive user")
				return
			}
			utils.Error(w, http.StatusForbidden, "Not enough permissions")
		})
	}
}

// UserFromContext returns the authenticated user of the request.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}

// UserIDFromContext returns the authenticated user's id, or 0.
func UserIDFromContext(ctx context.Context) int {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return 0
}
