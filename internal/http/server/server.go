// Package server assembles the HTTP router: middleware stack, API routes and /metrics.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jmylchreest/pricing-detective/internal/config"
	"github.com/jmylchreest/pricing-detective/internal/constants"
	"github.com/jmylchreest/pricing-detective/internal/http/handlers"
	"github.com/jmylchreest/pricing-detective/internal/http/mw"
	"github.com/jmylchreest/pricing-detective/internal/http/routes"
	"github.com/jmylchreest/pricing-detective/internal/llm"
	"github.com/jmylchreest/pricing-detective/internal/metrics"
	"github.com/jmylchreest/pricing-detective/internal/service"
	"github.com/jmylchreest/pricing-detective/internal/shutdown"
	"github.com/jmylchreest/pricing-detective/internal/version"
)

// Deps are the collaborators the router serves. Nil fields are built from config.
type Deps struct {
	Metrics  *metrics.Metrics
	Analyzer handlers.PricingAnalyzer
	Trials   *service.TrialService
	Logger   *slog.Logger
	// Idle, when set, counts in-flight requests toward idle shutdown.
	Idle *shutdown.IdleMonitor
}

// NewRouter builds the full HTTP handler for the service.
func NewRouter(cfg *config.Config, deps Deps) (http.Handler, huma.API) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(cfg.ToolName)
	}
	if deps.Analyzer == nil {
		client := llm.NewClient(llm.ClientConfig{
			BaseURL:   cfg.LLMProxyURL,
			APIKey:    cfg.LLMProxyKey,
			UserAgent: version.Get().UserAgent(cfg.ToolName),
		}, logger)
		var completer service.Completer = client
		if cfg.LLMBreakerFailures > 0 {
			completer = llm.NewBreaker(client, llm.BreakerConfig{
				ConsecutiveFailures: uint32(cfg.LLMBreakerFailures),
				Cooldown:            cfg.LLMBreakerCooldown,
			}, logger)
		}
		deps.Analyzer = service.NewAnalyzerService(completer, deps.Metrics, logger)
	}
	if deps.Trials == nil {
		deps.Trials = service.NewTrialService(service.NewMemoryTrialStore(), service.TrialServiceConfig{
			RefundOnFailure: cfg.TrialRefundOnFailure,
		}, deps.Metrics, logger)
	}

	router := chi.NewRouter()
	router.NotFound(mw.StatusDetail(http.StatusNotFound))
	router.MethodNotAllowed(mw.StatusDetail(http.StatusMethodNotAllowed))

	// Global middleware
	router.Use(middleware.RequestID)
	if deps.Idle != nil {
		router.Use(deps.Idle.Middleware)
	}
	router.Use(middleware.RealIP)
	router.Use(mw.RequestMetrics(deps.Metrics))
	router.Use(mw.TrafficTracking(deps.Metrics))
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(mw.ServiceHeaders(cfg.ToolName))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Device-Id", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-API-Version", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Use(middleware.RequestSize(constants.MaxRequestBodyBytes))
	router.Use(mw.RateLimitByIP(cfg.RateLimitPerMinute))
	router.Use(mw.RateLimitByDevice(constants.DeviceRateLimitPerMinute))
	router.Use(mw.Cache(mw.DefaultCacheConfig()))
	router.Use(middleware.Throttle(constants.MaxConcurrentRequests))

	router.Handle("/metrics", deps.Metrics.Handler())

	api := humachi.New(router, routes.NewHumaConfig(cfg.BaseURL))
	routes.Register(api, &routes.Handlers{
		HealthCheck: handlers.HealthCheck(cfg.ToolName),
		Analyze:     handlers.NewAnalyzeHandler(deps.Analyzer, deps.Trials, deps.Metrics, logger),
	})

	return router, api
}

// New creates the http.Server for cfg.
func New(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
		IdleTimeout:  constants.ServerIdleTimeout,
	}
}
