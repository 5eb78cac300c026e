package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newBufferLogger returns a logger writing JSON to buf only.
func newBufferLogger(t *testing.T, buf *bytes.Buffer, level zapcore.Level) *Logger {
	t.Helper()
	logger, err := NewLogger(Options{Level: level, Console: zapcore.AddSync(buf)})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	return logger
}

func decodeLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var entry map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger_WritesRotatedFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "seotools.log")
	var console bytes.Buffer

	logger, err := NewLogger(Options{
		Level:    InfoLevel,
		FilePath: logPath,
		Console:  zapcore.AddSync(&console),
	})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	if logger.LogFilePath() != logPath {
		t.Errorf("LogFilePath() = %q, want %q", logger.LogFilePath(), logPath)
	}

	logger.Info("usage recorded", zap.String("tool", "word-counter"), zap.Int("status", 200))
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	entries := decodeLines(t, content)
	if len(entries) != 1 {
		t.Fatalf("file has %d entries, want 1", len(entries))
	}
	if entries[0][FieldMessage] != "usage recorded" || entries[0]["tool"] != "word-counter" {
		t.Errorf("unexpected file entry: %v", entries[0])
	}
	if console.Len() == 0 {
		t.Error("console output is empty")
	}
}

func TestNewLogger_DevelopmentConsoleIsText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Options{Level: DebugLevel, Development: true, Console: zapcore.AddSync(&buf)})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	if !logger.IsDevelopment() {
		t.Error("IsDevelopment() = false")
	}

	logger.Debug("debug line")
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("development console should not be JSON: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("debug entry missing: %q", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf, WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("also shown", zap.Int("status", 500))

	entries := decodeLines(t, buf.Bytes())
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %s", len(entries), buf.String())
	}
	if entries[1]["status"] != float64(500) {
		t.Errorf("status field = %v", entries[1]["status"])
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf, InfoLevel)

	logger.Info("structured",
		zap.String("OPENAI_API_KEY", "plain-value"),
		zap.String("detail", "upstream said sk-abcdefghijklmnopqrstuvwxyz"))
	logger.Warn("second entry",
		zap.String("admin_password", "hunter2"),
		zap.String("header", "Bearer abcdefghijklmnopqrstuvwxyz"))

	out := buf.String()
	for _, secret := range []string{"plain-value", "sk-abcdefghij", "hunter2", "abcdefghijklmnopqrstuvwxyz"} {
		if strings.Contains(out, secret) {
			t.Errorf("log output leaked %q:\n%s", secret, out)
		}
	}
	if !strings.Contains(out, RedactedPlaceholder) {
		t.Error("no redaction placeholder in output")
	}
}

func TestLogger_WithAndNamed(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf, InfoLevel)

	child := logger.Named("api").With(zap.String("request_id", "req-1"), zap.String("token", "abcdefghijkl"))
	child.Info("handled")

	entries := decodeLines(t, buf.Bytes())
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	e := entries[0]
	if e[FieldSource] != "api" {
		t.Errorf("source = %v, want api", e[FieldSource])
	}
	if e["request_id"] != "req-1" {
		t.Errorf("request_id = %v", e["request_id"])
	}
	if e["token"] != RedactedPlaceholder {
		t.Errorf("token = %v, want redacted", e["token"])
	}
}

func TestLogger_SyncNil(t *testing.T) {
	var l *Logger
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() on nil logger = %v", err)
	}
	NewNop().Info("discarded")
}

func TestApplyFileWriterDefaults(t *testing.T) {
	got := applyFileWriterDefaults(FileWriterConfig{MaxBackups: 2, Compress: true})
	if got.MaxSizeMB != DefaultMaxSizeMB || got.MaxAgeDays != DefaultMaxAgeDays {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.MaxBackups != 2 || !got.Compress {
		t.Errorf("explicit values overwritten: %+v", got)
	}
}
