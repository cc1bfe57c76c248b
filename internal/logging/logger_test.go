package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	logger.Info("supervisor started", "port", 8080)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "relayctl.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log entry is not valid JSON: %v", err)
	}
	if entry["msg"] != "supervisor started" {
		t.Errorf("msg = %v, want 'supervisor started'", entry["msg"])
	}
	if entry["port"] != float64(8080) {
		t.Errorf("port = %v, want 8080", entry["port"])
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "relayctl.log"))
	content := string(data)
	if strings.Contains(content, "debug message") || strings.Contains(content, "info message") {
		t.Error("messages below WARN should be filtered")
	}
	if !strings.Contains(content, "warn message") {
		t.Error("WARN message should be logged")
	}
}

func TestWithComponentPropagation(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.WithComponent("portguard").WithPort(9100)
	child.Info("reclaiming port")
	logger.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "relayctl.log"))
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log entry is not valid JSON: %v", err)
	}
	if entry["component"] != "portguard" {
		t.Errorf("component = %v, want portguard", entry["component"])
	}
	if entry["port"] != float64(9100) {
		t.Errorf("port = %v, want 9100", entry["port"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"Warn":    LevelWarn,
		"error":   LevelError,
		"unknown": LevelInfo,
		"":        LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Info("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("NopLogger Close should be a no-op, got %v", err)
	}
}
