package mw

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
)

// DeviceIDHeader carries the client device identifier.
const DeviceIDHeader = "X-Device-Id"

// RateLimitByIP returns a middleware that rate limits by client IP.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(StatusDetail(http.StatusTooManyRequests)),
	)
}

// RateLimitByDevice limits requests per device identifier. Requests without
// the header are keyed by IP. The key also includes the IP so rotating device
// IDs from one address does not share another client's budget.
func RateLimitByDevice(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(deviceKey),
		httprate.WithLimitHandler(StatusDetail(http.StatusTooManyRequests)),
	)
}

// deviceKey builds the limiter key: "device:<id>|<ip>" or "ip:<ip>".
func deviceKey(r *http.Request) (string, error) {
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	device := strings.TrimSpace(r.Header.Get(DeviceIDHeader))
	if device == "" {
		return "ip:" + ip, nil
	}
	return "device:" + device + "|" + ip, nil
}
