// Package shutdown signals when the server has had no analysis traffic for a while.
package shutdown

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// IdleMonitorConfig holds configuration for the idle monitor.
type IdleMonitorConfig struct {
	// Timeout of zero disables the monitor.
	Timeout time.Duration
	Logger  *slog.Logger
	// ExcludePaths are path prefixes that do not count as activity (probes, scrapes).
	ExcludePaths []string
	// CheckInterval overrides the derived polling interval.
	CheckInterval time.Duration
}

// IdleMonitor closes Done once no tracked request has been active for Timeout.
type IdleMonitor struct {
	timeout  time.Duration
	interval time.Duration
	logger   *slog.Logger
	exclude  []string

	mu           sync.Mutex
	active       int
	lastActivity time.Time

	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// NewIdleMonitor creates an idle monitor.
func NewIdleMonitor(cfg IdleMonitorConfig) *IdleMonitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = clampInterval(cfg.Timeout / 6)
	}
	return &IdleMonitor{
		timeout:      cfg.Timeout,
		interval:     interval,
		logger:       logger,
		exclude:      cfg.ExcludePaths,
		lastActivity: time.Now(),
		done:         make(chan struct{}),
		stop:         make(chan struct{}),
	}
}

func clampInterval(d time.Duration) time.Duration {
	switch {
	case d < 5*time.Second:
		return 5 * time.Second
	case d > 30*time.Second:
		return 30 * time.Second
	default:
		return d
	}
}

// Enabled reports whether the monitor will ever fire.
func (m *IdleMonitor) Enabled() bool {
	return m.timeout > 0
}

// Start begins polling. It is a no-op when disabled.
func (m *IdleMonitor) Start() {
	if !m.Enabled() {
		return
	}
	m.logger.Info("idle monitoring started", "timeout", m.timeout, "exclude_paths", m.exclude)
	go m.run()
}

// Stop ends polling without signalling Done.
func (m *IdleMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Done is closed when the idle timeout is reached.
func (m *IdleMonitor) Done() <-chan struct{} {
	return m.done
}

// Middleware tracks in-flight requests outside the excluded paths.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.excluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		m.touch(1)
		defer m.touch(-1)
		next.ServeHTTP(w, r)
	})
}

func (m *IdleMonitor) excluded(path string) bool {
	for _, prefix := range m.exclude {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *IdleMonitor) touch(delta int) {
	m.mu.Lock()
	m.active += delta
	m.lastActivity = time.Now()
	m.mu.Unlock()
}

// idleFor returns how long the server has been idle, or zero while requests are in flight.
func (m *IdleMonitor) idleFor(now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active > 0 {
		m.lastActivity = now
		return 0
	}
	return now.Sub(m.lastActivity)
}

func (m *IdleMonitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			idle := m.idleFor(now)
			if idle >= m.timeout {
				m.logger.Info("idle timeout reached, signaling graceful shutdown", "idle_time", idle, "timeout", m.timeout)
				close(m.done)
				return
			}
			m.logger.Debug("idle check", "idle_time", idle, "timeout", m.timeout)
		}
	}
}
