package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/microcap/papertrade/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "json",
	}

	log := New(cfg)
	if log == nil {
		t.Fatal("Expected logger to be created")
	}

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("Expected global level debug, got %v", zerolog.GlobalLevel())
	}
}

func TestNewConsoleFormat(t *testing.T) {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := New(cfg)
	if log == nil {
		t.Fatal("Expected logger to be created")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithFieldsReturnsNewLogger(t *testing.T) {
	base := NewNop()

	derived := base.WithFields(map[string]interface{}{"symbol": "UPST", "shares": 10})
	if derived == base {
		t.Error("Expected WithFields to return a new logger")
	}

	withErr := base.WithError(nil)
	if withErr == nil {
		t.Error("Expected WithError to return a logger")
	}

	withField := base.WithField("key", "value")
	if withField == nil {
		t.Error("Expected WithField to return a logger")
	}
}
