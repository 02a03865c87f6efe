package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Config{Level: "info", Format: FormatJSON}, &buf)

	logger.Info("index updated", slog.Int("documents", 42))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "index updated", entry["msg"])
	assert.EqualValues(t, 42, entry["documents"])
}

func TestSetup_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Config{Level: "info", Format: FormatText}, &buf)

	logger.Warn("upstream unreachable")

	assert.Contains(t, buf.String(), "upstream unreachable")
	assert.Contains(t, buf.String(), "WARN")
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Config{Level: "info", Format: FormatJSON}, &buf)

	logger.Debug("not visible")
	logger.Info("visible")

	assert.NotContains(t, buf.String(), "not visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestSetup_AutoFallsBackToJSON(t *testing.T) {
	// A plain buffer is not a terminal, so auto must pick JSON.
	var buf bytes.Buffer
	logger := Setup(Config{Level: "info", Format: FormatAuto}, &buf)

	logger.Info("hello")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(line, "{"), "expected JSON output, got: %s", line)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}
