package util

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// SetupLogging installs a colored tint handler as the default slog logger at
// the level named by LOG_LEVEL (default info).
func SetupLogging() {
	SetupLoggingWithLevel(LevelFromString(os.Getenv("LOG_LEVEL")))
}

// SetupLoggingWithLevel installs the default logger at level.
func SetupLoggingWithLevel(level slog.Level) {
	slog.SetDefault(NewLogger(os.Stderr, level))
}

// NewLogger returns a tint-backed logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level == slog.LevelDebug,
		NoColor:    w != os.Stderr && w != os.Stdout,
	}))
}

// LevelFromString parses debug, warn and error; anything else is info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
