// Package logging configures colored structured logging with tint for the
// billed binaries.
//
//	logging.Setup("debug")                  // sets the slog default
//	logger := logging.New(w, slog.LevelInfo) // standalone logger
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs a tint handler writing to stderr as the slog default.
// levelName is one of debug, info, warn, error; anything else means info.
func Setup(levelName string) *slog.Logger {
	logger := New(os.Stderr, ParseLevel(levelName))
	slog.SetDefault(logger)
	return logger
}

// New returns a tint-backed logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level == slog.LevelDebug,
	}))
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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
