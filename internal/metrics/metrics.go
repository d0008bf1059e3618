// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token usage directions for llm_tokens_total.
const (
	DirectionPrompt     = "prompt"
	DirectionCompletion = "completion"
)

// Metrics is the service metrics registry. Every series carries the tool label.
// All methods are safe on a nil receiver so callers may run without metrics.
type Metrics struct {
	tool     string
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	analyses            *prometheus.CounterVec
	issuesDetected      *prometheus.CounterVec
	freeTrialUsed       *prometheus.CounterVec
	tokensConsumed      *prometheus.CounterVec
	paymentSuccess      *prometheus.CounterVec
	paymentRevenue      *prometheus.CounterVec
	pageViews           *prometheus.CounterVec
	crawlerVisits       *prometheus.CounterVec
	llmTokens           *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New(tool string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(tool, reg)
}

// NewWithRegistry creates the collectors on reg.
func NewWithRegistry(tool string, reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		tool:     tool,
		registry: reg,

		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"tool", "endpoint", "method", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"tool", "endpoint"},
		),
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_analyses_total",
				Help: "Total pricing analyses performed",
			},
			[]string{"tool"},
		),
		issuesDetected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_issues_detected_total",
				Help: "Pricing issues detected by type",
			},
			[]string{"tool", "issue_type"},
		),
		freeTrialUsed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "free_trial_used_total",
				Help: "Free trial analyses used",
			},
			[]string{"tool"},
		),
		tokensConsumed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_consumed_total",
				Help: "Paid tokens consumed",
			},
			[]string{"tool"},
		),
		paymentSuccess: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_success_total",
				Help: "Successful payments",
			},
			[]string{"tool", "product_sku"},
		),
		paymentRevenue: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_revenue_cents_total",
				Help: "Total revenue in cents",
			},
			[]string{"tool"},
		),
		pageViews: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "page_views_total",
				Help: "Page views",
			},
			[]string{"tool", "page"},
		),
		crawlerVisits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_visits_total",
				Help: "Search engine crawler visits",
			},
			[]string{"tool", "bot"},
		),
		llmTokens: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "LLM tokens reported by the upstream proxy",
			},
			[]string{"tool", "direction"},
		),
	}
}

// Tool returns the tool label value.
func (m *Metrics) Tool() string {
	if m == nil {
		return ""
	}
	return m.tool
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(endpoint, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(m.tool, endpoint, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(m.tool, endpoint).Observe(duration.Seconds())
}

// RecordAnalysis counts one completed analysis.
func (m *Metrics) RecordAnalysis() {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(m.tool).Inc()
}

// RecordIssue counts one detected issue of the given type.
func (m *Metrics) RecordIssue(issueType string) {
	if m == nil {
		return
	}
	m.issuesDetected.WithLabelValues(m.tool, issueType).Inc()
}

// RecordFreeTrialUse counts one consumed free analysis.
func (m *Metrics) RecordFreeTrialUse() {
	if m == nil {
		return
	}
	m.freeTrialUsed.WithLabelValues(m.tool).Inc()
}

// RecordTokensConsumed counts paid tokens spent.
func (m *Metrics) RecordTokensConsumed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensConsumed.WithLabelValues(m.tool).Add(float64(n))
}

// RecordPayment counts a successful payment and its revenue.
func (m *Metrics) RecordPayment(productSKU string, amountCents int64) {
	if m == nil {
		return
	}
	m.paymentSuccess.WithLabelValues(m.tool, productSKU).Inc()
	if amountCents > 0 {
		m.paymentRevenue.WithLabelValues(m.tool).Add(float64(amountCents))
	}
}

// RecordPageView counts a page view.
func (m *Metrics) RecordPageView(page string) {
	if m == nil {
		return
	}
	m.pageViews.WithLabelValues(m.tool, page).Inc()
}

// RecordCrawlerVisit counts a visit from a known crawler.
func (m *Metrics) RecordCrawlerVisit(bot string) {
	if m == nil {
		return
	}
	m.crawlerVisits.WithLabelValues(m.tool, bot).Inc()
}

// RecordLLMTokens records upstream token usage.
func (m *Metrics) RecordLLMTokens(prompt, completion int) {
	if m == nil {
		return
	}
	if prompt > 0 {
		m.llmTokens.WithLabelValues(m.tool, DirectionPrompt).Add(float64(prompt))
	}
	if completion > 0 {
		m.llmTokens.WithLabelValues(m.tool, DirectionCompletion).Add(float64(completion))
	}
}
