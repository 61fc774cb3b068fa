package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/ghakobyan/contactdesk/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// ManagerContextKey is the key for storing manager claims in context
	ManagerContextKey contextKey = "manager"
)

// Middleware guards protected routes. A missing Authorization header is an
// unauthenticated request (401); a present but invalid, expired, or
// mis-signed token is forbidden (403). On success the manager's claims are
// attached to the request context.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := tm.Verify(extractToken(authHeader))
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ManagerContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken accepts both "Bearer <token>" and a bare token value. The
// original contact-form client sends the raw header; newer clients send the
// standard Bearer form.
func extractToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return authHeader
}

// GetManagerFromContext extracts manager claims from request context
func GetManagerFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(ManagerContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
