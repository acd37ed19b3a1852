package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/service"
)

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
)

// RequireAdmin authenticates requests with HTTP basic auth against the users
// table and injects the resolved user identity into the request context.
// Failures get a 401 with a challenge header; the response does not reveal
// whether the username existed.
func RequireAdmin(auth *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				challenge(w)
				return
			}

			userID, err := auth.ValidateCredentials(r.Context(), username, password)
			if errors.Is(err, domain.ErrInvalidCredentials) {
				challenge(w)
				return
			}
			if err != nil {
				logger.Error("credential validation failed",
					zap.String("correlation_id", GetCorrelationID(r.Context())),
					zap.Error(err),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="publish"`)
	http.Error(w, "authentication required", http.StatusUnauthorized)
}

// UserID retrieves the authenticated user's ID stored by RequireAdmin.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// Username retrieves the authenticated username stored by RequireAdmin.
func Username(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok
}
