package routes

import (
	"context"

	"github.com/jmylchreest/pricing-detective/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// They are only used for OpenAPI generation, where Huma reads types from
// the function signatures.
func StubHandlers() *Handlers {
	return &Handlers{
		HealthCheck: stubHealthCheck,
		Analyze:     &stubAnalyzeHandlers{},
	}
}

func stubHealthCheck(_ context.Context, _ *struct{}) (*handlers.HealthCheckOutput, error) {
	return nil, nil
}

type stubAnalyzeHandlers struct{}

func (s *stubAnalyzeHandlers) Analyze(_ context.Context, _ *handlers.AnalyzeInput) (*handlers.AnalyzeOutput, error) {
	return nil, nil
}

func (s *stubAnalyzeHandlers) TrialStatus(_ context.Context, _ *handlers.TrialStatusInput) (*handlers.TrialStatusOutput, error) {
	return nil, nil
}
