package mw

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitByDevice(t *testing.T) {
	handler := RateLimitByDevice(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(device string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		if device != "" {
			req.Header.Set(DeviceIDHeader, device)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("a"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, code)
		}
	}
	if code := send("a"); code != http.StatusTooManyRequests {
		t.Errorf("device a third request status = %d, want 429", code)
	}
	if code := send("b"); code != http.StatusOK {
		t.Errorf("device b status = %d, want 200 (separate budget)", code)
	}
	if code := send(""); code != http.StatusOK {
		t.Errorf("no device status = %d, want 200 (IP budget)", code)
	}
}

func TestDeviceKey(t *testing.T) {
	tests := []struct {
		name     string
		device   string
		expected string
	}{
		{"with device", "dev-1", "device:dev-1|198.51.100.1"},
		{"blank device", "  ", "ip:198.51.100.1"},
		{"no device", "", "ip:198.51.100.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "198.51.100.1:1234"
			if tt.device != "" {
				req.Header.Set(DeviceIDHeader, tt.device)
			}
			got, err := deviceKey(req)
			if err != nil {
				t.Fatalf("deviceKey() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("deviceKey() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRateLimitByIP(t *testing.T) {
	handler := RateLimitByIP(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.9:80"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestRateLimit_DetailBody(t *testing.T) {
	handler := RateLimitByDevice(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var rec *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
		req.RemoteAddr = "192.0.2.10:80"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["detail"] != "Too Many Requests" {
		t.Errorf("detail = %v, want %q", body["detail"], "Too Many Requests")
	}
}
