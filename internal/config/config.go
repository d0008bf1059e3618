// Package config handles application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmylchreest/pricing-detective/internal/constants"
)

// DefaultToolName is the service name used for metrics labels and health output.
const DefaultToolName = "pricing-detective"

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// LLM proxy (OpenAI-compatible chat completions)
	LLMProxyURL string
	LLMProxyKey string

	// Circuit breaker on the proxy (0 failures = disabled)
	LLMBreakerFailures int
	LLMBreakerCooldown time.Duration

	// Database (not used by the analyzer; kept for deployments that share the env file)
	DatabaseURL string

	// App
	ToolName string
	Debug    bool

	// Creem payments (loaded only; no payment flow is served here)
	CreemAPIKey        string
	CreemWebhookSecret string
	CreemProductIDs    map[string]string // sku -> Creem product ID

	// HTTP surface
	CORSOrigins        []string
	RateLimitPerMinute int

	// Refund the free-trial use when the analysis fails downstream
	TrialRefundOnFailure bool

	// Shut down after this long without analysis traffic (0 = never)
	IdleTimeout time.Duration
}

// Load reads configuration from environment variables.
// A .env file in the working directory is applied first; real env vars win.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:    getEnvInt("PORT", 8080),
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		LLMProxyURL: strings.TrimRight(getEnv("LLM_PROXY_URL", "https://llm-proxy.densematrix.ai"), "/"),
		LLMProxyKey: getEnv("LLM_PROXY_KEY", ""),

		LLMBreakerFailures: getEnvInt("LLM_BREAKER_FAILURES", constants.LLMBreakerFailures),
		LLMBreakerCooldown: getEnvDuration("LLM_BREAKER_COOLDOWN", constants.LLMBreakerCooldown),

		DatabaseURL: getEnv("DATABASE_URL", "sqlite:///./app.db"),

		ToolName: getEnv("TOOL_NAME", DefaultToolName),
		Debug:    getEnvBool("DEBUG", false),

		CreemAPIKey:        getEnv("CREEM_API_KEY", ""),
		CreemWebhookSecret: getEnv("CREEM_WEBHOOK_SECRET", ""),

		CORSOrigins:        getEnvSlice("CORS_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),

		TrialRefundOnFailure: getEnvBool("TRIAL_REFUND_ON_FAILURE", false),

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 0),
	}

	productIDs, err := parseProductIDs(getEnv("CREEM_PRODUCT_IDS", "{}"))
	if err != nil {
		return nil, err
	}
	cfg.CreemProductIDs = productIDs

	if cfg.RateLimitPerMinute <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitPerMinute)
	}

	if cfg.LLMBreakerFailures < 0 {
		return nil, fmt.Errorf("LLM_BREAKER_FAILURES must not be negative, got %d", cfg.LLMBreakerFailures)
	}

	return cfg, nil
}

// LLMConfigured reports whether an LLM proxy key is present.
func (c *Config) LLMConfigured() bool {
	return c.LLMProxyKey != ""
}

// loadDotEnv applies KEY=VALUE pairs from path without overriding the process env.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func parseProductIDs(raw string) (map[string]string, error) {
	ids := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("CREEM_PRODUCT_IDS must be a JSON object of strings: %w", err)
	}
	return ids, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
