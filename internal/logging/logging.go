// Package logging provides a configured slog logger with:
// - TTY detection for human-readable vs JSON output
// - LOG_FORMAT env var override (text/json)
// - LOG_LEVEL env var (debug/info/warn/error), or debug when DEBUG is enabled
// - Source file:line info with shortened relative paths
// - Context helpers for per-request attributes (device and analysis IDs)
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ContextKey is the type for logging values stored in a context.
type ContextKey string

const (
	// DeviceIDKey carries the caller's device identifier.
	DeviceIDKey ContextKey = "log_device_id"
	// AnalysisIDKey carries the ULID assigned to a single analysis.
	AnalysisIDKey ContextKey = "log_analysis_id"
)

// Options controls logger construction.
type Options struct {
	// Debug forces debug level regardless of LOG_LEVEL.
	Debug bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// New creates a new configured logger.
// Format is determined by:
// 1. LOG_FORMAT env var (text/json)
// 2. TTY detection (text for TTY, JSON otherwise)
// Level is determined by LOG_LEVEL env var (debug/info/warn/error, default: info)
func New() *slog.Logger {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a logger honouring the given options on top of the env settings.
func NewWithOptions(o Options) *slog.Logger {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler
	logFormat := os.Getenv("LOG_FORMAT")
	useText := logFormat == "text"
	if logFormat == "" {
		if f, ok := out.(*os.File); ok {
			useText = isatty(f)
		}
	}

	// Get working directory for relative path calculation
	wd, _ := os.Getwd()

	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	if o.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Shorten source paths to be relative
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					if rel, err := filepath.Rel(wd, src.File); err == nil {
						src.File = rel
					} else {
						src.File = filepath.Base(src.File)
					}
				}
			}
			return a
		},
	}

	if useText {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault creates a new logger and sets it as the default slog logger.
// Returns the created logger for additional use.
func SetDefault() *slog.Logger {
	return SetDefaultWithOptions(Options{})
}

// SetDefaultWithOptions is SetDefault with explicit options.
func SetDefaultWithOptions(o Options) *slog.Logger {
	logger := NewWithOptions(o)
	slog.SetDefault(logger)
	return logger
}

// WithDeviceID stores the device identifier for later log enrichment.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, DeviceIDKey, deviceID)
}

// WithAnalysisID stores the analysis ID for later log enrichment.
func WithAnalysisID(ctx context.Context, analysisID string) context.Context {
	return context.WithValue(ctx, AnalysisIDKey, analysisID)
}

// GetDeviceID returns the device identifier from ctx, or "".
func GetDeviceID(ctx context.Context) string {
	v, _ := ctx.Value(DeviceIDKey).(string)
	return v
}

// GetAnalysisID returns the analysis ID from ctx, or "".
func GetAnalysisID(ctx context.Context) string {
	v, _ := ctx.Value(AnalysisIDKey).(string)
	return v
}

// FromContext returns logger enriched with any IDs carried by ctx.
// The original logger is returned unchanged when there is nothing to add.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if ctx == nil {
		return logger
	}
	var attrs []any
	if id := GetDeviceID(ctx); id != "" {
		attrs = append(attrs, "device_id", id)
	}
	if id := GetAnalysisID(ctx); id != "" {
		attrs = append(attrs, "analysis_id", id)
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}

// isatty returns true if the file is a terminal.
func isatty(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
