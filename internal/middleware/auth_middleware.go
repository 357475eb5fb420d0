package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pawprint/backend/internal/auth"
	"github.com/pawprint/backend/pkg/response"
)

type contextKey string

const (
	// ViewerIDKey holds the authenticated viewer's account id.
	ViewerIDKey contextKey = "viewer_id"
)

// AuthMiddleware creates JWT authentication middleware
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := jwtManager.ValidateAccessToken(parts[1])
			if err != nil {
				if err == auth.ErrExpiredToken {
					response.Unauthorized(w, "token has expired")
					return
				}
				response.Unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ViewerIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetViewerID extracts the authenticated viewer id from context
func GetViewerID(ctx context.Context) (uuid.UUID, bool) {
	viewerID, ok := ctx.Value(ViewerIDKey).(uuid.UUID)
	return viewerID, ok
}
