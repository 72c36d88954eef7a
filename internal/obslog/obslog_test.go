package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: zapcore.InfoLevel, Format: "json", Console: true, ConsoleTo: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("hidden")
	l.Info("board_move", zap.String("from", "(4,6)"))
	_ = l.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["msg"] != "board_move" || rec["from"] != "(4,6)" || rec["level"] != "info" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.log")
	l, err := New(Options{Level: zapcore.InfoLevel, Format: "legacy", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("session_create")
	_ = l.Sync()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "session_create") || !strings.Contains(string(raw), " | ") {
		t.Fatalf("unexpected log file contents: %q", raw)
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "weird")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "")
	opts := OptionsFromEnv()
	if opts.Level != zapcore.DebugLevel {
		t.Fatalf("level = %v", opts.Level)
	}
	if opts.Format != "legacy" {
		t.Fatalf("format = %q", opts.Format)
	}
	if opts.File != filepath.Join("logs", "board.log") {
		t.Fatalf("file = %q", opts.File)
	}
}

func TestReplaceRestores(t *testing.T) {
	l := zap.NewExample()
	restore := Replace(l)
	if L() != l {
		t.Fatalf("Replace did not install logger")
	}
	restore()
	if L() == l {
		t.Fatalf("restore did not reinstate previous logger")
	}
}
