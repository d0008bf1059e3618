package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/pricing-detective/internal/constants"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ========================================
// Complete Tests
// ========================================

func TestClient_Complete_RequestShape(t *testing.T) {
	var gotReq ChatRequest
	var gotAuth, gotContentType, gotPath, gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}"}}],"usage":{"prompt_tokens":10,"completion_tokens":2}}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "sk-test", UserAgent: "pricing-detective/test"}, discardLogger())

	completion, err := c.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer sk-test")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotUA != "pricing-detective/test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotReq.Model != constants.AnalysisModel {
		t.Errorf("model = %q, want %q", gotReq.Model, constants.AnalysisModel)
	}
	if gotReq.MaxTokens != 4000 {
		t.Errorf("max_tokens = %d, want 4000", gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" || gotReq.Messages[0].Content != "analyze this" {
		t.Errorf("messages = %+v, want single user message", gotReq.Messages)
	}

	content, err := completion.Content()
	if err != nil {
		t.Fatalf("Content() error = %v", err)
	}
	if content != "{}" {
		t.Errorf("Content() = %q, want {}", content)
	}
	if completion.Usage.PromptTokens != 10 || completion.Usage.CompletionTokens != 2 {
		t.Errorf("Usage = %+v", completion.Usage)
	}
}

func TestClient_Complete_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"rate limited", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
		{"bad gateway", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				http.Error(w, `{"error":"nope"}`, tt.status)
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{BaseURL: srv.URL}, discardLogger())
			_, err := c.Complete(context.Background(), "prompt")
			if err == nil {
				t.Fatal("expected error")
			}

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error = %T, want *StatusError", err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
			}
			if !IsStatus(err, tt.status) {
				t.Error("IsStatus() should match")
			}
			if calls != 1 {
				t.Errorf("upstream called %d times, want exactly 1 (no retries)", calls)
			}
		})
	}
}

func TestClient_Complete_LongErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, discardLogger())
	_, err := c.Complete(context.Background(), "prompt")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if len(se.Body) > maxErrorBodyLen+3 {
		t.Errorf("Body length = %d, want <= %d", len(se.Body), maxErrorBodyLen+3)
	}
}

func TestClient_Complete_MalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>proxy error</html>`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, discardLogger())
	_, err := c.Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Errorf("error = %v, want ErrMalformedEnvelope", err)
	}
}

func TestClient_Complete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, discardLogger())
	if _, err := c.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestClient_Endpoint(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "https://proxy.example/"}, nil)
	if got := c.Endpoint(); got != "https://proxy.example/v1/chat/completions" {
		t.Errorf("Endpoint() = %q", got)
	}
}

// ========================================
// ChatCompletion Tests
// ========================================

func TestChatCompletion_Content_Empty(t *testing.T) {
	var nilCompletion *ChatCompletion
	if _, err := nilCompletion.Content(); !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("nil completion error = %v, want ErrEmptyCompletion", err)
	}

	c := &ChatCompletion{}
	if _, err := c.Content(); !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("empty choices error = %v, want ErrEmptyCompletion", err)
	}
}

func TestChatCompletion_Truncated(t *testing.T) {
	c := &ChatCompletion{Choices: []ChatChoice{{FinishReason: "length"}}}
	if !c.Truncated() {
		t.Error("finish_reason=length should be truncated")
	}
	c.Choices[0].FinishReason = "stop"
	if c.Truncated() {
		t.Error("finish_reason=stop should not be truncated")
	}
}

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{StatusCode: 503}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("Error() = %q, should contain status", err.Error())
	}
}
