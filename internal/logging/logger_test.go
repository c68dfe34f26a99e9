package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"renderq/internal/config"
	"renderq/internal/logging"
	"renderq/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(data)
}

func TestConsoleLoggerFormatsLaneAndComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("shot complete",
		logging.String(logging.FieldComponent, "workflow"),
		logging.String(logging.FieldLane, "render"),
		logging.String(logging.FieldShot, "shots/1/slate 2"),
	)

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO  [render] workflow: shot complete") {
		t.Fatalf("unexpected console line %q", content)
	}
	if !strings.Contains(content, `shot="shots/1/slate 2"`) {
		t.Fatalf("expected quoted shot attr in %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")

	if content := readLog(t, logPath); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
		SessionID:   "abc",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("refresh failed", logging.String(logging.FieldEventType, "queue_refresh_failed"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("level = %v, want warn", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
	if record["session_id"] != "abc" {
		t.Fatalf("session_id = %v, want abc", record["session_id"])
	}
	if record[logging.FieldEventType] != "queue_refresh_failed" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "warn"
	dir := t.TempDir()
	logPath := logging.RunLogPath(dir, "render", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if filepath.Base(logPath) != "renderq-render-20260102T030405.log" {
		t.Fatalf("unexpected run log name %q", logPath)
	}

	logger, err := logging.NewFromConfig(&cfg, logPath, "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("filtered")
	logger.Warn("kept")

	content := readLog(t, logPath)
	if strings.Contains(content, "filtered") || !strings.Contains(content, "kept") {
		t.Fatalf("level filtering not applied: %q", content)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	base, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithLane(context.Background(), "composite")
	ctx = services.WithShot(ctx, "shots/7/slate 1")
	ctx = services.WithLaunchID(ctx, "launch-1")
	logging.WithContext(ctx, base).Info("launched")

	content := readLog(t, logPath)
	for _, want := range []string{`"lane":"composite"`, `"shot":"shots/7/slate 1"`, `"launch_id":"launch-1"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}

func TestErrorAttrsIncludeKind(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "runner", "build", "blender exited 1", errors.New("exit status 1"))
	attrs := logging.ErrorAttrs(err)
	if len(attrs) != 2 || attrs[1].Key != logging.FieldErrorKind || attrs[1].Value.String() != "external_tool" {
		t.Fatalf("unexpected attrs %v", attrs)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "queue refresh failed", "queue_refresh_failed",
		logging.String(logging.FieldErrorHint, "fix the queue JSON"))

	content := readLog(t, logPath)
	for _, want := range []string{`"event_type":"queue_refresh_failed"`, `"error_hint":"fix the queue JSON"`, `"impact":`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	toolDir := filepath.Join(dir, "tool")
	if err := os.MkdirAll(toolDir, 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().AddDate(0, 0, -10)
	oldRun := filepath.Join(dir, "renderq-render-20200101T000000.log")
	current := filepath.Join(dir, "renderq-render-20200102T000000.log")
	oldTool := filepath.Join(toolDir, "render-x.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldRun, current, oldTool, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatal(err)
		}
	}

	if removed := logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTargets(dir, toolDir, current)...); removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	for _, p := range []string{oldRun, oldTool} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s pruned", p)
		}
	}
	for _, p := range []string{current, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}
