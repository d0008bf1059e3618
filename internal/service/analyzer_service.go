package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/pricing-detective/internal/constants"
	"github.com/jmylchreest/pricing-detective/internal/llm"
	"github.com/jmylchreest/pricing-detective/internal/logging"
	"github.com/jmylchreest/pricing-detective/internal/metrics"
	"github.com/jmylchreest/pricing-detective/internal/models"
)

// Completer is the LLM call the analyzer depends on. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*llm.ChatCompletion, error)
}

// AnalysisError is the single failure type surfaced by Analyze.
type AnalysisError struct {
	AnalysisID string
	Err        error
}

func (e *AnalysisError) Error() string {
	return e.Err.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// AnalyzeInput represents input for pricing analysis.
type AnalyzeInput struct {
	Content  string
	ToolName string
	Language string
}

// AnalyzerService runs pricing analyses against the LLM proxy.
type AnalyzerService struct {
	llm     Completer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAnalyzerService creates a new analyzer service.
func NewAnalyzerService(client Completer, m *metrics.Metrics, logger *slog.Logger) *AnalyzerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzerService{
		llm:     client,
		metrics: m,
		logger:  logger,
	}
}

// Analyze builds the prompt, calls the LLM and maps the reply. Any failure is
// returned as *AnalysisError; there are no retries.
func (s *AnalyzerService) Analyze(ctx context.Context, input AnalyzeInput) (*models.AnalysisResult, error) {
	analysisID := ulid.Make().String()
	ctx = logging.WithAnalysisID(ctx, analysisID)
	logger := logging.FromContext(ctx, s.logger)

	language := strings.TrimSpace(input.Language)
	if language == "" {
		language = constants.DefaultLanguage
	}

	logger.Info("analysis started",
		"content_length", len(input.Content),
		"language", language,
		"tool_name", input.ToolName,
	)
	start := time.Now()

	result, err := s.analyze(ctx, input, language)
	if err != nil {
		logger.Error("analysis failed", "error", err, "duration", time.Since(start))
		return nil, &AnalysisError{AnalysisID: analysisID, Err: err}
	}

	s.metrics.RecordAnalysis()
	for _, issue := range result.Issues {
		s.metrics.RecordIssue(string(issue.Type))
	}

	logger.Info("analysis completed",
		"tool_name", result.ToolName,
		"overall_score", result.OverallScore,
		"issues", len(result.Issues),
		"tiers", len(result.Tiers),
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *AnalyzerService) analyze(ctx context.Context, input AnalyzeInput, language string) (*models.AnalysisResult, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("LLM client not configured")
	}

	prompt := BuildAnalysisPrompt(input.Content, language)

	completion, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	s.metrics.RecordLLMTokens(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	text, err := completion.Content()
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	result, err := MapAnalysisResult(raw, input.ToolName)
	if err != nil {
		return nil, fmt.Errorf("failed to map LLM response: %w", err)
	}
	return result, nil
}
