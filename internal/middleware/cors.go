package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware returns CORS configuration for mobile clients
func CORSMiddleware() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		// Mobile clients; restrict in production
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Link",
			"X-Request-Id",
		},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
