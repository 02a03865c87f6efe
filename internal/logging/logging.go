// Package logging configures structured logging for searchd.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatAuto picks text when the output is a terminal, JSON otherwise.
	FormatAuto Format = "auto"
	// FormatJSON forces JSON output.
	FormatJSON Format = "json"
	// FormatText forces human-readable output.
	FormatText Format = "text"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output encoding (auto, json, text).
	Format Format
}

// DefaultConfig returns sensible defaults for a service process.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatAuto,
	}
}

// Setup builds a logger writing to w and installs it as the slog default.
// A nil w writes to stderr.
func Setup(cfg Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch resolveFormat(cfg.Format, w) {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// resolveFormat maps FormatAuto to a concrete format based on the writer.
func resolveFormat(f Format, w io.Writer) Format {
	if f != FormatAuto {
		return f
	}
	if file, ok := w.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		return FormatText
	}
	return FormatJSON
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
