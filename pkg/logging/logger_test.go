package logging

import (
	"log/slog"
	"testing"
)

func TestNew_LevelParsing(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		logger := New(tt.level)
		if logger == nil {
			t.Fatalf("New(%q) returned nil", tt.level)
		}
		if !logger.Enabled(nil, tt.enabled) {
			t.Errorf("New(%q): expected level %v to be enabled", tt.level, tt.enabled)
		}
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default() returned nil")
	}
	if logger.Enabled(nil, slog.LevelDebug) {
		t.Error("default logger should not enable debug")
	}
}

func TestNamed(t *testing.T) {
	logger := Default().Named("booking")
	if logger == nil {
		t.Fatal("Named() returned nil")
	}
}
