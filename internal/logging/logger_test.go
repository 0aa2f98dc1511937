package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesToFileAndMirror(t *testing.T) {
	projectDir := t.TempDir()
	var mirror bytes.Buffer
	logger, err := New(projectDir, WithMirror(&mirror))
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	logger.Infof("module %s started\n", "compile")
	logger.Debugf("hidden")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(projectDir, ".forge", "logs", "forge.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := "[2026-03-01T12:00:00Z] INFO  module compile started\n"
	if string(data) != want {
		t.Fatalf("unexpected log file contents: %q", string(data))
	}
	if mirror.String() != want {
		t.Fatalf("unexpected mirror contents: %q", mirror.String())
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithLevel(LevelWarn))
	logger.Infof("skip me")
	logger.Warnf("keep me")
	logger.Errorf("and me")
	out := buf.String()
	if strings.Contains(out, "skip me") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN  keep me") || !strings.Contains(out, "ERROR and me") {
		t.Fatalf("missing warn/error lines: %q", out)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("nothing")
	if err := logger.Close(); err != nil {
		t.Fatalf("close nil logger: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != LevelDebug || ParseLevel("warning") != LevelWarn || ParseLevel("bogus") != LevelInfo {
		t.Fatalf("ParseLevel mapping is off")
	}
}
