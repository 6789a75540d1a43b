package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mkravec/product-catalog/internal/delivery/http/response"
)

type contextKey struct{}

// userIDKey carries the authenticated principal's ID in the request context
var userIDKey contextKey = contextKey{}

// TokenVerifier resolves a bearer token to a user ID
type TokenVerifier interface {
	Verify(tokenStr string) (uuid.UUID, error)
}

// Auth returns a middleware that requires a valid bearer token and puts
// the resolved user ID into the request context
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				response.Error(w, http.StatusUnauthorized, "Missing or malformed authorization header")
				return
			}

			userID, err := verifier.Verify(tokenStr)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user's ID from the context, or
// uuid.Nil when the request was not authenticated
func GetUserID(ctx context.Context) uuid.UUID {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// WithUserID returns a context carrying the given user ID; used by tests
// to simulate an authenticated request
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
