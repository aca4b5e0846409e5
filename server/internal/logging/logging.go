// Package logging builds the process-wide slog logger from configuration.
//
// Output always goes to stdout; when a file path is configured it is
// duplicated to a size-rotated file. The level lives in a slog.LevelVar so it
// can be changed while the server runs (see config.Watch).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/botdeck/botdeck/server/internal/config"
)

// New returns a logger configured by cfg together with its level handle.
// The returned io.Closer releases the log file, if any; it is always non-nil.
func New(cfg config.LogConfig) (*slog.Logger, *slog.LevelVar, io.Closer) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg config.LogConfig, stdout io.Writer) (*slog.Logger, *slog.LevelVar, io.Closer) {
	level := new(slog.LevelVar)
	if l, err := ParseLevel(cfg.Level); err == nil {
		level.Set(l)
	}

	var (
		out    = stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File.Path != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		out = io.MultiWriter(stdout, file)
		closer = file
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(h), level, closer
}

// ParseLevel maps a config level name to a slog.Level. It accepts the same
// names as config.NormalizeLevel.
func ParseLevel(s string) (slog.Level, error) {
	name, ok := config.NormalizeLevel(s)
	if !ok {
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: %w", err)
	}
	return l, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
