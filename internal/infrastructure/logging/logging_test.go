package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_StderrOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := New(config.LoggingConfig{Level: "warn"}, t.TempDir(), &buf)
	defer sink.Close() //nolint:errcheck // no file

	sink.Logger.Info("hidden")
	sink.Logger.Warn("shown", "seq", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info must be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "seq=3") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNew_RotatingFile(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	sink := New(config.LoggingConfig{Level: "debug", File: ".essaycoach/essaycoach.log", MaxSizeMB: 1}, root, &buf)

	sink.Logger.Debug("cycle applied", "seq", 1)
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, ".essaycoach", "essaycoach.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "cycle applied") {
		t.Errorf("file does not contain the record: %q", data)
	}
	if !strings.Contains(buf.String(), "cycle applied") {
		t.Error("stderr must receive the record too")
	}
}
