package infra

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_WritesFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Dir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Level = "warn"

	logger := NewLogger(cfg)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	logger.Warn("ledger write failed", slog.String("module", "test"))

	if _, err := os.Stat(filepath.Join(cfg.Logging.Dir, "profit.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}
