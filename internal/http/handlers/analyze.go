package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/pricing-detective/internal/logging"
	"github.com/jmylchreest/pricing-detective/internal/metrics"
	"github.com/jmylchreest/pricing-detective/internal/models"
	"github.com/jmylchreest/pricing-detective/internal/service"
)

// PricingAnalyzer runs one analysis. *service.AnalyzerService implements it.
type PricingAnalyzer interface {
	Analyze(ctx context.Context, input service.AnalyzeInput) (*models.AnalysisResult, error)
}

// AnalyzeHandler handles the analyze and trial-status endpoints.
type AnalyzeHandler struct {
	analyzer PricingAnalyzer
	trials   *service.TrialService
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analyzer PricingAnalyzer, trials *service.TrialService, m *metrics.Metrics, logger *slog.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeHandler{
		analyzer: analyzer,
		trials:   trials,
		metrics:  m,
		logger:   logger,
	}
}

// AnalyzeInput represents analyze request.
type AnalyzeInput struct {
	DeviceID string `header:"X-Device-Id" default:"anonymous" doc:"Opaque client device identifier used for free-trial accounting"`
	Body     struct {
		// Unknown fields are ignored.
		_        struct{} `json:"-" additionalProperties:"true"`
		Content  string  `json:"content" minLength:"50" doc:"Pasted pricing page content (HTML or text). Only the first 15000 characters are analysed."`
		ToolName *string `json:"tool_name,omitempty" nullable:"true" doc:"Tool name to use when it cannot be read from the content"`
		Language string  `json:"language,omitempty" default:"en" doc:"Language code for the response"`
	}
}

// AnalyzeOutput represents analyze response.
type AnalyzeOutput struct {
	Body *models.AnalysisResult
}

// Analyze charges the device's trial and runs the analysis.
func (h *AnalyzeHandler) Analyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error) {
	ctx = logging.WithDeviceID(ctx, input.DeviceID)
	logger := logging.FromContext(ctx, h.logger)

	grant, err := h.trials.Consume(ctx, input.DeviceID)
	if err != nil {
		if errors.Is(err, service.ErrTrialExhausted) {
			logger.Info("free trial exhausted", "limit", h.trials.Limit())
			return nil, errPaymentRequired(msgTrialExhausted)
		}
		logger.Error("trial check failed", "error", err)
		return nil, huma.Error500InternalServerError(msgTrialCheckFailed)
	}

	var toolName string
	if input.Body.ToolName != nil {
		toolName = *input.Body.ToolName
	}

	result, err := h.analyzer.Analyze(ctx, service.AnalyzeInput{
		Content:  input.Body.Content,
		ToolName: toolName,
		Language: input.Body.Language,
	})
	if err != nil {
		h.trials.Refund(ctx, grant)
		return nil, huma.Error500InternalServerError(msgAnalysisFailed + err.Error())
	}

	h.metrics.RecordTokensConsumed(1)
	return &AnalyzeOutput{Body: result}, nil
}

// TrialStatusInput represents trial status request.
type TrialStatusInput struct {
	DeviceID string `header:"X-Device-Id" default:"anonymous" doc:"Opaque client device identifier"`
}

// TrialStatusOutput represents trial status response.
type TrialStatusOutput struct {
	Body models.TrialStatus
}

// TrialStatus reports free-trial usage for the device. It never changes the counter.
func (h *AnalyzeHandler) TrialStatus(ctx context.Context, input *TrialStatusInput) (*TrialStatusOutput, error) {
	status, err := h.trials.Status(ctx, input.DeviceID)
	if err != nil {
		logging.FromContext(logging.WithDeviceID(ctx, input.DeviceID), h.logger).Error("trial status failed", "error", err)
		return nil, huma.Error500InternalServerError(msgTrialStatusFailed)
	}
	return &TrialStatusOutput{Body: status}, nil
}
