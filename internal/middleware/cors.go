// Package middleware provides the HTTP middleware stack of the formflow server.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler returns a middleware that applies CORS headers for
// allowedOrigins. Each origin is scheme + host, no trailing slash. Form posts
// from another origin need credentials so the flash session cookie travels.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Language", "Location"},
		AllowCredentials: true,
	})
	return c.Handler
}
