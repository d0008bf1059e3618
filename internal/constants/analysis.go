// Package constants defines fixed limits for pricing analysis and the free trial.
package constants

import "time"

// Request content limits.
const (
	// MinContentLength is the minimum pasted content length in characters.
	MinContentLength = 50

	// MaxPromptContentLength caps the content embedded in the prompt.
	// Longer content is truncated silently, never rejected.
	MaxPromptContentLength = 15000

	// DefaultLanguage is the response language when none is given.
	DefaultLanguage = "en"

	// MaxRequestBodyBytes bounds inbound request bodies.
	MaxRequestBodyBytes = 1 * 1024 * 1024
)

// LLM call settings.
const (
	// AnalysisModel is the model requested from the LLM proxy.
	AnalysisModel = "claude-sonnet-4-20250514"

	// AnalysisMaxTokens is the output token budget per analysis.
	AnalysisMaxTokens = 4000

	// LLMRequestTimeout covers connect and read of the whole upstream call.
	LLMRequestTimeout = 60 * time.Second

	// LLMBreakerFailures consecutive upstream failures open the circuit.
	LLMBreakerFailures = 5

	// LLMBreakerCooldown is how long an open circuit rejects calls.
	LLMBreakerCooldown = 30 * time.Second

	// ChatCompletionsPath is appended to the proxy base URL.
	ChatCompletionsPath = "/v1/chat/completions"
)

// Free trial.
const (
	// FreeTrialLimit is the number of free analyses per device identifier.
	FreeTrialLimit = 3

	// AnonymousDeviceID is used when the client sends no X-Device-Id header.
	AnonymousDeviceID = "anonymous"
)

// Server timeouts.
const (
	// ServerWriteTimeout must exceed LLMRequestTimeout so upstream failures still reach the client.
	ServerWriteTimeout = LLMRequestTimeout + 15*time.Second
	ServerReadTimeout  = 15 * time.Second
	ServerIdleTimeout  = 120 * time.Second
	ShutdownTimeout    = 30 * time.Second
)

// Global HTTP limits.
const (
	// MaxConcurrentRequests throttles in-flight requests across the server.
	MaxConcurrentRequests = 100
)

// Cache lifetimes.
const (
	// CacheMaxAgeDocs applies to the OpenAPI document and docs UI.
	CacheMaxAgeDocs = 5 * time.Minute

	// DeviceRateLimitPerMinute caps requests per device identifier.
	DeviceRateLimitPerMinute = 30
)
