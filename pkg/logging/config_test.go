package logging

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"INFO", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseTimeFormat(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"kitchen", time.Kitchen},
		{"rfc3339", time.RFC3339},
		{"unix", ""},
		{"15:04:05", "15:04:05"},
		{"bogus", time.Kitchen},
	}

	for _, tt := range tests {
		if got := parseTimeFormat(tt.input); got != tt.want {
			t.Errorf("parseTimeFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerFromConfigNil(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	logger := NewLoggerFromConfig(nil)
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("nil config should produce an info-level logger, got %v", logger.GetLevel())
	}
}
