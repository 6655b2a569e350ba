package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the journal SPA origins call the API. Rate limit, replay and
// request id headers are exposed so the browser client can read them.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", idempotencyKeyHeader, requestIDHeader},
		ExposedHeaders: []string{
			requestIDHeader,
			idempotentReplayHeader,
			"Retry-After",
			rateLimitLimitHeader,
			rateLimitRemainingHeader,
		},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
