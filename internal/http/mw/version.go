// Package mw provides HTTP middleware and huma registration helpers.
package mw

import (
	"net/http"

	"github.com/jmylchreest/pricing-detective/internal/version"
)

// ServiceHeaders adds X-API-Version and X-Service to every response.
func ServiceHeaders(service string) func(http.Handler) http.Handler {
	apiVersion := version.Get().Short()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-API-Version", apiVersion)
			if service != "" {
				w.Header().Set("X-Service", service)
			}
			next.ServeHTTP(w, r)
		})
	}
}
