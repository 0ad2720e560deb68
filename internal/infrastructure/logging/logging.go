// Package logging builds the process slog logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
)

// Sink is a configured logger together with the closer of its file output.
type Sink struct {
	Logger *slog.Logger
	file   *lumberjack.Logger
}

// New builds a text logger writing to stderr and, when cfg.File is set, to a
// rotating file. Relative file paths resolve against root.
func New(cfg config.LoggingConfig, root string, stderr io.Writer) *Sink {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	s := &Sink{}
	out := stderr
	if cfg.File != "" {
		path := cfg.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		s.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   true,
		}
		out = io.MultiWriter(stderr, s.file)
	}
	s.Logger = slog.New(slog.NewTextHandler(out, opts))
	return s
}

// Close flushes and closes the rotating file, if any.
func (s *Sink) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// ParseLevel maps a config level to slog; unknown values mean info.
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
