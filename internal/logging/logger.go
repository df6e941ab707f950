// Package logging builds the process logger every worker creates on cold start:
// a JSON slog handler on stdout, wrapped to satisfy types.Logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"photoalbum/internal/types"
)

// SlogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger satisfies Info, Error and Warn directly, but its With returns
// *slog.Logger rather than types.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// Compile-time assertion that SlogAdapter implements types.Logger.
var _ types.Logger = (*SlogAdapter)(nil)

func (a *SlogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *SlogAdapter) With(args ...any) types.Logger {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

// Slog returns the wrapped logger for libraries that want *slog.Logger.
func (a *SlogAdapter) Slog() *slog.Logger {
	return a.logger
}

// Wrap adapts an existing *slog.Logger.
func Wrap(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// New creates a JSON logger on stdout at the given level.
func New(level string) *SlogAdapter {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a JSON logger writing to w.
func NewWithWriter(w io.Writer, level string) *SlogAdapter {
	return Wrap(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *SlogAdapter {
	return Wrap(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// ParseLevel maps LOG_LEVEL values onto slog levels. Unknown values fall back
// to info.
func ParseLevel(level string) slog.Level {
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
