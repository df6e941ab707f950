package types

// Logger defines the structured logging interface used throughout the pipeline.
// Production code wraps *slog.Logger (see internal/logging); tests pass a
// discard logger.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}
