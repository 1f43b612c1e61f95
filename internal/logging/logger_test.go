package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	return slog.New(newConsoleHandler(buf, levelVar)), buf
}

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	logger, buf := newTestLogger(t)
	NewComponentLogger(logger, "chat-worker").Info("tick complete", Int("attempts", 1))

	line := buf.String()
	if !strings.Contains(line, "INFO chat-worker: tick complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "attempts=1") {
		t.Fatalf("expected attrs in line, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	logger, buf := newTestLogger(t)
	logger.Warn("publish failed", Error(errors.New("status 500 from helix")))

	line := buf.String()
	if !strings.Contains(line, `error="status 500 from helix"`) {
		t.Fatalf("expected quoted error value, got %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", String("key", "value"))
}
