package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmylchreest/pricing-detective/internal/constants"
)

// ChatMessage is a single chat-completions message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body sent to the proxy.
type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// ChatChoice is one completion choice.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", ...
}

// Usage reports token consumption as returned by the proxy.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletion is the parsed top-level response envelope.
type ChatCompletion struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// Content returns the first choice's message content.
func (c *ChatCompletion) Content() (string, error) {
	if c == nil || len(c.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return c.Choices[0].Message.Content, nil
}

// Truncated reports whether the first choice stopped on the token budget.
func (c *ChatCompletion) Truncated() bool {
	return c != nil && len(c.Choices) > 0 && c.Choices[0].FinishReason == "length"
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL   string        // Proxy base URL, without the /v1/chat/completions path
	APIKey    string        // Sent as a bearer token
	Model     string        // Default: constants.AnalysisModel
	MaxTokens int           // Default: constants.AnalysisMaxTokens
	Timeout   time.Duration // Default: constants.LLMRequestTimeout
	UserAgent string

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client calls the LLM proxy. It never retries.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	maxTokens  int
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new LLM proxy client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = constants.AnalysisModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = constants.AnalysisMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.LLMRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + constants.ChatCompletionsPath,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Endpoint returns the full chat-completions URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Complete sends prompt as a single user message and returns the parsed envelope.
// Any non-2xx status is returned as *StatusError.
func (c *Client) Complete(ctx context.Context, prompt string) (*ChatCompletion, error) {
	reqBody := ChatRequest{
		Model:     c.model,
		Messages:  []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Debug("making LLM API request",
		"endpoint", c.endpoint,
		"model", c.model,
		"prompt_length", len(prompt),
		"max_tokens", c.maxTokens,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("LLM API request failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("LLM API response received",
		"status_code", resp.StatusCode,
		"response_length", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("LLM API error",
			"status_code", resp.StatusCode,
			"response_length", len(body),
		)
		return nil, newStatusError(resp.StatusCode, body)
	}

	var completion ChatCompletion
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	if completion.Truncated() {
		c.logger.Warn("LLM output truncated",
			"model", c.model,
			"completion_tokens", completion.Usage.CompletionTokens,
			"max_tokens", c.maxTokens,
		)
	}

	return &completion, nil
}
