package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		" WARN ": zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"info":   zapcore.InfoLevel,
		"":       zapcore.InfoLevel,
		"trace":  zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	logger := NewLogger("warn")
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected error enabled at warn level")
	}
	if NewConsoleLogger("debug").Core().Enabled(zapcore.DebugLevel) == false {
		t.Fatalf("expected debug enabled for console logger")
	}
}
