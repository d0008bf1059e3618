package routes

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/pricing-detective/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
// Pass real handler implementations for the main server, or StubHandlers
// for OpenAPI generation.
func Register(api huma.API, h *Handlers) {
	mw.PublicGet(api, "/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithOperationID("healthCheck"))

	mw.PublicPost(api, "/api/v1/analyze", h.Analyze.Analyze,
		mw.WithTags("Analysis"),
		mw.WithSummary("Analyze pricing content"),
		mw.WithDescription("Paste the HTML or text content of a SaaS pricing page and get a detailed analysis of hidden fees and misleading pricing. Each call uses one free analysis for the device."),
		mw.WithErrors(http.StatusPaymentRequired, http.StatusUnprocessableEntity, http.StatusInternalServerError),
		mw.WithOperationID("analyzePricing"))

	mw.PublicGet(api, "/api/v1/trial-status", h.Analyze.TrialStatus,
		mw.WithTags("Trial"),
		mw.WithSummary("Get free trial status"),
		mw.WithOperationID("getTrialStatus"))
}
