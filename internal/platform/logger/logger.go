// Package logger configures the process-wide slog logger from the environment.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls the default logger.
type Config struct {
	Level   slog.Level
	Enabled bool
	Format  string // "json" or "text"
}

// LoadConfigFromEnv reads LOGGER_LEVEL, LOGGER_ENABLED and LOGGER_FORMAT.
func LoadConfigFromEnv() Config {
	cfg := Config{Level: slog.LevelInfo, Enabled: true, Format: "json"}
	switch strings.ToLower(os.Getenv("LOGGER_LEVEL")) {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn", "warning":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}
	if strings.EqualFold(os.Getenv("LOGGER_ENABLED"), "false") {
		cfg.Enabled = false
	}
	if strings.EqualFold(os.Getenv("LOGGER_FORMAT"), "text") {
		cfg.Format = "text"
	}
	return cfg
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) *slog.Logger {
	if !cfg.Enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Setup installs the logger described by the environment as the slog default.
func Setup() *slog.Logger {
	l := New(LoadConfigFromEnv(), os.Stdout)
	slog.SetDefault(l)
	return l
}
