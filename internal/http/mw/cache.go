package mw

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jmylchreest/pricing-detective/internal/constants"
)

// CachePolicy defines caching behavior for a route pattern.
type CachePolicy struct {
	// Pattern is the route prefix to match.
	Pattern string
	// CacheControl is the Cache-Control header value to set.
	CacheControl string
}

// CacheConfig holds the cache middleware configuration.
type CacheConfig struct {
	// Policies are the cache policies to apply, matched in order.
	Policies []CachePolicy
	// DefaultPolicy is applied when no policy matches (empty = no header set).
	DefaultPolicy string
}

// DefaultCacheConfig returns the cache policies for the service routes.
// API documentation is publicly cacheable, while probes, metrics and trial
// counters must always reflect current state.
func DefaultCacheConfig() CacheConfig {
	// Cache-Control wants whole seconds
	docsSecs := int(constants.CacheMaxAgeDocs.Seconds())

	return CacheConfig{
		DefaultPolicy: "no-cache",
		Policies: []CachePolicy{
			// Probes and scrapes - never cache
			{Pattern: "/health", CacheControl: "no-store"},
			{Pattern: "/metrics", CacheControl: "no-store"},

			// Per-device counters - never shared, never stored
			{Pattern: "/api/v1/trial-status", CacheControl: "private, no-store"},

			// API documentation - changes only on deploy
			{Pattern: "/openapi", CacheControl: fmt.Sprintf("public, max-age=%d", docsSecs)},
			{Pattern: "/docs", CacheControl: fmt.Sprintf("public, max-age=%d", docsSecs)},
			{Pattern: "/schemas", CacheControl: fmt.Sprintf("public, max-age=%d", docsSecs)},
		},
	}
}

// Cache returns middleware that sets Cache-Control headers based on route prefixes.
// For non-GET/HEAD requests, it sets "no-store" so analyses are never cached.
// For GET/HEAD requests, it matches against configured policies in order.
func Cache(cfg CacheConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Non-GET/HEAD requests should never be cached
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				w.Header().Set("Cache-Control", "no-store")
				next.ServeHTTP(w, r)
				return
			}

			// Find matching policy (first match wins)
			for _, policy := range cfg.Policies {
				if strings.HasPrefix(r.URL.Path, policy.Pattern) {
					w.Header().Set("Cache-Control", policy.CacheControl)
					next.ServeHTTP(w, r)
					return
				}
			}

			// Fall back to the default policy when one is set
			if cfg.DefaultPolicy != "" {
				w.Header().Set("Cache-Control", cfg.DefaultPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}
