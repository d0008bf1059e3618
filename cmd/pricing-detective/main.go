// Package main is the entry point for the pricing-detective server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/pricing-detective/internal/config"
	"github.com/jmylchreest/pricing-detective/internal/constants"
	"github.com/jmylchreest/pricing-detective/internal/http/server"
	"github.com/jmylchreest/pricing-detective/internal/logging"
	"github.com/jmylchreest/pricing-detective/internal/metrics"
	"github.com/jmylchreest/pricing-detective/internal/shutdown"
	"github.com/jmylchreest/pricing-detective/internal/version"
)

func main() {
	// Initialize logger with TTY detection, source paths, and format control
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting pricing-detective",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger = logging.SetDefaultWithOptions(logging.Options{Debug: true})
	}

	if !cfg.LLMConfigured() {
		logger.Warn("LLM_PROXY_KEY not set - analysis requests will fail upstream")
	}

	idle := shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
		Timeout:      cfg.IdleTimeout,
		Logger:       logger,
		ExcludePaths: []string{"/health", "/metrics"},
	})

	handler, _ := server.NewRouter(cfg, server.Deps{
		Metrics: metrics.New(cfg.ToolName),
		Logger:  logger,
		Idle:    idle,
	})
	srv := server.New(cfg, handler)

	// Graceful shutdown on signal or idle timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			logger.Info("shutting down server", "signal", sig.String())
		case <-idle.Done():
			logger.Info("shutting down idle server")
		}
		idle.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	idle.Start()

	logger.Info("starting server",
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
		"tool", cfg.ToolName,
		"llm_proxy", cfg.LLMProxyURL,
		"trial_refund_on_failure", cfg.TrialRefundOnFailure,
		"idle_timeout", cfg.IdleTimeout,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
