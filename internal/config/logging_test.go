package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("run submitted", "run_id", "jake_1_abc")

	if !strings.Contains(stderr.String(), "run submitted") {
		t.Errorf("stderr missing message: %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "hidden") {
		t.Errorf("debug message leaked at info level")
	}

	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v (%q)", err, file.String())
	}
	if entry["run_id"] != "jake_1_abc" {
		t.Errorf("run_id = %v, want jake_1_abc", entry["run_id"])
	}
}

func TestSetupLoggerFallsBackToStderr(t *testing.T) {
	logger, cleanup := SetupLogger(t.TempDir()+"/missing/dir/log.json", slog.LevelInfo)
	defer cleanup()
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestSetupLoggerStderrOnly(t *testing.T) {
	logger, cleanup := SetupLogger("", slog.LevelInfo)
	if logger == nil {
		t.Fatal("expected logger")
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}

func TestWithCommand(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := WithCommand(SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo), "submit")
	logger.Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v", err)
	}
	if entry["cmd"] != "submit" {
		t.Errorf("cmd = %v, want submit", entry["cmd"])
	}
}
