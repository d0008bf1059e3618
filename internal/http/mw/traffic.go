package mw

import (
	"net/http"
	"strings"

	"github.com/jmylchreest/pricing-detective/internal/metrics"
)

// knownBots maps a lowercase User-Agent substring to the crawler_visits_total bot label.
// Order matters: more specific tokens come first.
var knownBots = []struct {
	token string
	name  string
}{
	{"googlebot", "googlebot"},
	{"bingbot", "bingbot"},
	{"duckduckbot", "duckduckbot"},
	{"yandexbot", "yandexbot"},
	{"baiduspider", "baiduspider"},
	{"applebot", "applebot"},
	{"gptbot", "gptbot"},
	{"claudebot", "claudebot"},
	{"perplexitybot", "perplexitybot"},
	{"facebookexternalhit", "facebook"},
	{"twitterbot", "twitterbot"},
	{"linkedinbot", "linkedinbot"},
	{"slackbot", "slackbot"},
	{"ahrefsbot", "ahrefsbot"},
	{"semrushbot", "semrushbot"},
}

// untrackedPrefixes are never counted as page views.
var untrackedPrefixes = []string{"/api/", "/metrics", "/health", "/openapi", "/docs", "/schemas"}

// DetectBot returns the crawler name for a User-Agent, or "" for regular clients.
func DetectBot(userAgent string) string {
	ua := strings.ToLower(userAgent)
	if ua == "" {
		return ""
	}
	for _, b := range knownBots {
		if strings.Contains(ua, b.token) {
			return b.name
		}
	}
	return ""
}

// TrafficTracking counts crawler visits for every request and page views for
// GET requests outside the API, metrics and health endpoints.
func TrafficTracking(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bot := DetectBot(r.UserAgent()); bot != "" {
				m.RecordCrawlerVisit(bot)
			}
			if r.Method == http.MethodGet && isPagePath(r.URL.Path) {
				m.RecordPageView(r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPagePath(path string) bool {
	for _, prefix := range untrackedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
