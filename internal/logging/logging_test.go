package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{" warning ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"prod", "dev"} {
		logger, err := New(mode, "info")
		if err != nil {
			t.Fatalf("New(%q) error: %v", mode, err)
		}
		if !logger.Core().Enabled(zapcore.InfoLevel) {
			t.Fatalf("New(%q) should enable info", mode)
		}
		if logger.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("New(%q) should not enable debug at info level", mode)
		}
	}
	if _, err := New("prod", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
