// Package routes provides shared route registration for the pricing-detective API.
// The server and the OpenAPI generator register the same routes, so the
// published document always matches what is served.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/pricing-detective/internal/version"
)

// APITitle is the OpenAPI document title.
const APITitle = "Pricing Detective API"

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(baseURL string) huma.Config {
	cfg := huma.DefaultConfig(APITitle, version.Get().Short())
	cfg.Info.Description = "AI-powered SaaS pricing analyzer. Detects hidden fees, fake free tiers and misleading pricing."

	// No $schema field in responses
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Analysis", Description: "Pricing analysis", Extensions: map[string]any{"x-displayName": "Analysis"}},
		{Name: "Trial", Description: "Free trial status", Extensions: map[string]any{"x-displayName": "Trial"}},
		{Name: "Health", Description: "System health and status", Extensions: map[string]any{"x-displayName": "Health"}},
	}

	return cfg
}
