// Package logging builds the slog loggers used across the module.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel sets the level of loggers returned by Default.
const EnvLevel = "CTAGS_COMPANION_LOG_LEVEL"

// New returns a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Default returns a stderr logger tagged with component. The level comes
// from EnvLevel and falls back to info.
func Default(component string) *slog.Logger {
	level, err := ParseLevel(os.Getenv(EnvLevel))
	if err != nil {
		level = slog.LevelInfo
	}
	return New(os.Stderr, level).With("component", component)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel parses debug, info, warn or error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}
