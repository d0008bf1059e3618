package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jmylchreest/pricing-detective/internal/http/mw"
	"github.com/jmylchreest/pricing-detective/internal/metrics"
	"github.com/jmylchreest/pricing-detective/internal/models"
	"github.com/jmylchreest/pricing-detective/internal/service"
)

// mockAnalyzer implements PricingAnalyzer for testing.
type mockAnalyzer struct {
	calls int
	last  service.AnalyzeInput
	err   error
}

func (m *mockAnalyzer) Analyze(_ context.Context, input service.AnalyzeInput) (*models.AnalysisResult, error) {
	m.calls++
	m.last = input
	if m.err != nil {
		return nil, m.err
	}
	return &models.AnalysisResult{
		ToolName:        "Acme",
		OverallScore:    64,
		Verdict:         "Mostly honest",
		Issues:          []models.PricingIssue{},
		Tiers:           []models.TierAnalysis{},
		Recommendations: []string{},
	}, nil
}

const validContent = "Pro plan: $29/user/month billed annually. Setup fee of $199 applies to all new accounts."

type testEnv struct {
	api      humatest.TestAPI
	analyzer *mockAnalyzer
	trials   *service.TrialService
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T, trialCfg service.TrialServiceConfig) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWithRegistry("pricing-detective", prometheus.NewRegistry())
	analyzer := &mockAnalyzer{}
	trials := service.NewTrialService(service.NewMemoryTrialStore(), trialCfg, m, logger)
	h := NewAnalyzeHandler(analyzer, trials, m, logger)

	_, api := humatest.New(t)
	mw.PublicGet(api, "/health", HealthCheck("pricing-detective"))
	mw.PublicPost(api, "/api/v1/analyze", h.Analyze)
	mw.PublicGet(api, "/api/v1/trial-status", h.TrialStatus)

	return &testEnv{api: api, analyzer: analyzer, trials: trials, metrics: m}
}

func decodeDetail(t *testing.T, body io.Reader) string {
	t.Helper()
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	detail, ok := raw["detail"].(string)
	if !ok {
		t.Fatalf("detail = %T (%v), want string", raw["detail"], raw["detail"])
	}
	if strings.Contains(detail, "[object Object]") || strings.Contains(detail, "map[") {
		t.Errorf("detail leaks a nested object: %q", detail)
	}
	return detail
}

// ========================================
// HealthCheck Tests
// ========================================

func TestHealthCheck(t *testing.T) {
	output, err := HealthCheck("pricing-detective")(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "ok" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "ok")
	}
	if output.Body.Service != "pricing-detective" {
		t.Errorf("Service = %q, want %q", output.Body.Service, "pricing-detective")
	}
}

// ========================================
// Analyze Tests
// ========================================

func TestAnalyze_Success(t *testing.T) {
	env := newTestEnv(t, service.TrialServiceConfig{})

	resp := env.api.Post("/api/v1/analyze", "X-Device-Id: dev-1", map[string]any{
		"content":   validContent,
		"tool_name": "Given",
		"language":  "de",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.ToolName != "Acme" || result.OverallScore != 64 {
		t.Errorf("result = %+v", result)
	}
	if env.analyzer.last.ToolName != "Given" || env.analyzer.last.Language != "de" {
		t.Errorf("analyzer input = %+v", env.analyzer.last)
	}

	status, _ := env.trials.Status(context.Background(), "dev-1")
	if status.Used != 1 {
		t.Errorf("Used = %d, want 1", status.Used)
	}
	if n, _ := testutil.GatherAndCount(env.metrics.Registry(), "tokens_consumed_total"); n != 1 {
		t.Errorf("tokens_consumed_total series = %d, want 1", n)
	}
}

func TestAnalyze_Defaults(t *testing.T) {
	env := newTestEnv(t, service.TrialServiceConfig{})

	resp := env.api.Post("/api/v1/analyze", map[string]any{"content": validContent, "tool_name": nil})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	if env.analyzer.last.Language != "en" {
		t.Errorf("Language = %q, want en", env.analyzer.last.Language)
	}
	if env.analyzer.last.ToolName != "" {
		t.Errorf("ToolName = %q, want empty", env.analyzer.last.ToolName)
	}

	status, _ := env.trials.Status(context.Background(), "anonymous")
	if status.Used != 1 {
		t.Errorf("anonymous Used = %d, want 1", status.Used)
	}
}

func TestAnalyze_ShortContent(t *testing.T) {
	env := newTestEnv(t, service.TrialServiceConfig{})

	tests := []struct {
		name string
		body any
	}{
		{"too short", map[string]any{"content": "Free plan, $0"}},
		{"49 characters", map[string]any{"content": strings.Repeat("x", 49)}},
		{"missing content", map[string]any{"language": "en"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.api.Post("/api/v1/analyze", "X-Device-Id: short", tt.body)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", resp.Code, resp.Body.String())
			}
			decodeDetail(t, resp.Body)
		})
	}

	if env.analyzer.calls != 0 {
		t.Errorf("analyzer calls = %d, want 0", env.analyzer.calls)
	}
	status, _ := env.trials.Status(context.Background(), "short")
	if status.Used != 0 {
		t.Errorf("Used = %d, want 0 (validation must not consume trial)", status.Used)
	}
}

func TestAnalyze_ValidationDetailOmitsValues(t *testing.T) {
	env := newTestEnv(t, service.TrialServiceConfig{})

	tests := []struct {
		name    string
		body    any
		absent  string
		mention string
	}{
		{"object tool_name", map[string]any{"content": "short", "tool_name": map[string]any{"a": 1}}, "a:1", "body.tool_name"},
		{"array language", map[string]any{"content": validContent, "language": []any{"fr"}}, "[fr]", "body.language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.api.Post("/api/v1/analyze", "X-Device-Id: values", tt.body)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", resp.Code, resp.Body.String())
			}
			detail := decodeDetail(t, resp.Body)
			if strings.Contains(detail, tt.absent) {
				t.Errorf("detail = %q, should not echo %q", detail, tt.absent)
			}
			if !strings.Contains(detail, tt.mention) {
				t.Errorf("detail = %q, want location %q", detail, tt.mention)
			}
		})
	}
}

func TestAnalyze_IgnoresUnknownFields(t *testing.T) {
	env := newTestEnv(t, service.TrialServiceConfig{})

	resp := env.api.Post("/api/v1/analyze", "X-Device-Id: extra", map[string]any{
		"content": validContent,
		"extra":   1,
		"source":  map[string]any{"from": "web"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	if env.analyzer.last.Content != validContent {
		t.Errorf("Content = %q, want %q", env.analyzer.last.Content, validContent)
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	env := newTestEnv(t, service.TrialServiceConfig{})
	raw := `{"content": "not closed`

	resp := env.api.Post("/api/v1/analyze", "X-Device-Id: broken", "Content-Type: application/json", strings.NewReader(raw))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", resp.Code, resp.Body.String())
	}
	if detail := decodeDetail(t, resp.Body); strings.Contains(detail, "not closed") {
		t.Errorf("detail = %q, should not echo the request body", detail)
	}
	if env.analyzer.calls != 0 {
		t.Errorf("analyzer calls = %d, want 0", env.analyzer.calls)
	}
}

func TestAnalyze_TrialExhausted(t *testing.T) {
	env := newTestEnv(t, service.TrialServiceConfig{})
	body := map[string]any{"content": validContent}

	for i := 0; i < 3; i++ {
		if resp := env.api.Post("/api/v1/analyze", "X-Device-Id: dev-2", body); resp.Code != http.StatusOK {
			t.Fatalf("call %d status = %d, want 200", i+1, resp.Code)
		}
	}

	for i := 0; i < 2; i++ {
		resp := env.api.Post("/api/v1/analyze", "X-Device-Id: dev-2", body)
		if resp.Code != http.StatusPaymentRequired {
			t.Fatalf("status = %d, want 402", resp.Code)
		}
		if detail := decodeDetail(t, resp.Body); detail != msgTrialExhausted {
			t.Errorf("detail = %q, want %q", detail, msgTrialExhausted)
		}
	}

	if env.analyzer.calls != 3 {
		t.Errorf("analyzer calls = %d, want 3", env.analyzer.calls)
	}

	resp := env.api.Get("/api/v1/trial-status", "X-Device-Id: dev-2")
	var status models.TrialStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Used != 3 || status.Remaining != 0 || status.Limit != 3 {
		t.Errorf("status = %+v, want used=3 remaining=0 limit=3", status)
	}
}

func TestAnalyze_AnalysisFailure(t *testing.T) {
	tests := []struct {
		name     string
		refund   bool
		wantUsed int
	}{
		{"charged by default", false, 1},
		{"refunded when enabled", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, service.TrialServiceConfig{RefundOnFailure: tt.refund})
			env.analyzer.err = &service.AnalysisError{Err: errors.New("LLM call failed: upstream 502")}

			resp := env.api.Post("/api/v1/analyze", "X-Device-Id: dev-3", map[string]any{"content": validContent})
			if resp.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", resp.Code)
			}
			if detail := decodeDetail(t, resp.Body); detail != "Analysis failed: LLM call failed: upstream 502" {
				t.Errorf("detail = %q", detail)
			}

			status, _ := env.trials.Status(context.Background(), "dev-3")
			if status.Used != tt.wantUsed {
				t.Errorf("Used = %d, want %d", status.Used, tt.wantUsed)
			}
		})
	}
}

// ========================================
// TrialStatus Tests
// ========================================

func TestTrialStatus_FreshDevice(t *testing.T) {
	env := newTestEnv(t, service.TrialServiceConfig{})

	resp := env.api.Get("/api/v1/trial-status", "X-Device-Id: brand-new")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}

	var status models.TrialStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Used != 0 || status.Remaining != 3 || status.Limit != 3 {
		t.Errorf("status = %+v, want used=0 remaining=3 limit=3", status)
	}
}

// ========================================
// Error Model Tests
// ========================================

func TestNewError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		msg    string
		errs   []error
		want   string
	}{
		{"message only", 402, msgTrialExhausted, nil, msgTrialExhausted},
		{"empty message", 500, "", nil, "Internal Server Error"},
		{"flattened details", 422, "validation failed", []error{errors.New("a"), nil, errors.New("b")}, "validation failed: a; b"},
		{"detail without value", 422, "validation failed", []error{&huma.ErrorDetail{Message: "expected string", Location: "body.tool_name", Value: map[string]any{"a": 1}}}, "validation failed: expected string (body.tool_name)"},
		{"detail without location", 422, "validation failed", []error{&huma.ErrorDetail{Message: "unexpected"}}, "validation failed: unexpected"},
		{"bad request becomes 422", 400, "invalid body", nil, "invalid body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.status, tt.msg, tt.errs...)
			wantStatus := tt.status
			if wantStatus == http.StatusBadRequest {
				wantStatus = http.StatusUnprocessableEntity
			}
			if err.GetStatus() != wantStatus {
				t.Errorf("GetStatus() = %d, want %d", err.GetStatus(), wantStatus)
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}
