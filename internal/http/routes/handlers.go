package routes

import (
	"context"

	"github.com/jmylchreest/pricing-detective/internal/http/handlers"
)

// AnalyzeHandlers defines the interface for analysis and trial operations.
type AnalyzeHandlers interface {
	Analyze(ctx context.Context, input *handlers.AnalyzeInput) (*handlers.AnalyzeOutput, error)
	TrialStatus(ctx context.Context, input *handlers.TrialStatusInput) (*handlers.TrialStatusOutput, error)
}

// Handlers holds every handler registered on the API.
type Handlers struct {
	HealthCheck func(ctx context.Context, input *struct{}) (*handlers.HealthCheckOutput, error)
	Analyze     AnalyzeHandlers
}
