package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf, "test")

	l.log(LevelInfo, "hidden %d", 1)
	l.log(LevelWarn, "shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "shown 2") || !strings.Contains(out, "test") {
		t.Errorf("expected prefixed warn message, got %q", out)
	}
}

func TestLogger_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf, "test")

	l.log(LevelInfo, "Authorization: Bearer abc123")
	if strings.Contains(buf.String(), "abc123") {
		t.Fatalf("secret was logged: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "REDACTED") {
		t.Errorf("expected redaction marker, got %q", buf.String())
	}
}

func TestLogger_FileSinkAndConsoleToggle(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf, "test")
	path := filepath.Join(t.TempDir(), "nested", "debug.log")

	if err := l.openFile(path); err != nil {
		t.Fatalf("openFile: %v", err)
	}
	l.consoleEnabled = false
	l.log(LevelWarn, "action failed")
	if err := l.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("console sink should be silent, got %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "action failed") {
		t.Errorf("file sink missing message: %q", data)
	}
}

func TestDebugLogPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if p := DebugLogPath(); !strings.HasSuffix(p, filepath.Join(".config", "cardboard", "debug.log")) {
		t.Errorf("DebugLogPath() = %q", p)
	}
}
