package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestAdapterWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info").With("trace_id", "t-1")

	logger.Info("image accepted", "object_key", "birdhouse.jpg")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "image accepted", entry["msg"])
	assert.Equal(t, "t-1", entry["trace_id"])
	assert.Equal(t, "birdhouse.jpg", entry["object_key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "error")

	logger.Info("dropped")
	logger.Warn("dropped too")
	assert.Zero(t, buf.Len())

	logger.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}
