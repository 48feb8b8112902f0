package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := LoggingConfig{Level: tt.level, Format: "text", Output: "stderr"}
			logger, closer, err := l.NewLogger()
			if err != nil {
				t.Fatalf("NewLogger failed: %v", err)
			}
			defer closer.Close()

			ctx := context.Background()
			if !logger.Enabled(ctx, tt.enabled) {
				t.Errorf("Expected level %v to be enabled", tt.enabled)
			}
			if logger.Enabled(ctx, tt.muted) {
				t.Errorf("Expected level %v to be muted", tt.muted)
			}
		})
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.log")
	l := LoggingConfig{Level: "info", Format: "json", Output: path}

	logger, closer, err := l.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("Streaming started", slog.Int("frames", 3))
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"Streaming started"`) || !strings.Contains(string(data), `"frames":3`) {
		t.Errorf("Expected JSON log line, got %s", data)
	}
}

func TestNewLoggerBadFile(t *testing.T) {
	l := LoggingConfig{Level: "info", Format: "text", Output: filepath.Join(t.TempDir(), "missing", "x.log")}
	if _, _, err := l.NewLogger(); err == nil {
		t.Error("Expected error for unwritable log path")
	}
}
