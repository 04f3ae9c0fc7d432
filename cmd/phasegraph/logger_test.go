package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npratt/phasegraph/internal/config"
)

func testRotation() config.LogRotationConfig {
	return config.Default().LogRotation
}

func TestSetupTUILogger_WritesToFile(t *testing.T) {
	tmpDir := t.TempDir()

	result := SetupTUILogger(tmpDir, slog.LevelInfo, testRotation())

	expectedPath := filepath.Join(tmpDir, "phasegraph-debug.log")
	if result.FilePath != expectedPath {
		t.Errorf("FilePath = %q, want %q", result.FilePath, expectedPath)
	}

	result.Logger.Info("test message", "key", "value")
	_ = result.Close()

	content, err := os.ReadFile(result.FilePath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(content), "test message") {
		t.Errorf("log file should contain 'test message', got: %s", content)
	}
	if !strings.Contains(string(content), `"key":"value"`) {
		t.Errorf("log file should contain key=value, got: %s", content)
	}
}

func TestSetupTUILogger_DoesNotWriteToStderr(t *testing.T) {
	// Anything on stderr would corrupt the TUI display.
	tmpDir := t.TempDir()

	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	result := SetupTUILogger(tmpDir, slog.LevelInfo, testRotation())
	result.Logger.Info("this should not appear on stderr")
	_ = result.Close()

	_ = w.Close()
	os.Stderr = oldStderr

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	if buf.Len() > 0 {
		t.Errorf("TUI logger wrote to stderr: %s", buf.String())
	}
}

func TestSetupFileLogger_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs", "phasegraph.log")

	result := SetupFileLogger(path, slog.LevelInfo, testRotation())
	result.Logger.Info("server started")
	_ = result.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(content), "server started") {
		t.Errorf("log file content = %s", content)
	}
}

func TestSetupTUILogger_AppendsToExistingFile(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "phasegraph-debug.log")
	if err := os.WriteFile(logPath, []byte("existing content\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	result := SetupTUILogger(tmpDir, slog.LevelInfo, testRotation())
	result.Logger.Info("new message")
	_ = result.Close()

	content, _ := os.ReadFile(logPath)
	if !strings.Contains(string(content), "existing content") {
		t.Error("should preserve existing content")
	}
	if !strings.Contains(string(content), "new message") {
		t.Error("should append new message")
	}
}

func TestSetupTUILogger_RespectsLogLevel(t *testing.T) {
	tmpDir := t.TempDir()

	result := SetupTUILogger(tmpDir, slog.LevelWarn, testRotation())
	result.Logger.Info("info message")
	result.Logger.Warn("warn message")
	_ = result.Close()

	content, _ := os.ReadFile(result.FilePath)
	if strings.Contains(string(content), "info message") {
		t.Error("INFO message should be filtered out at WARN level")
	}
	if !strings.Contains(string(content), "warn message") {
		t.Error("WARN message should appear")
	}
}

func TestSetupLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	level := &slog.LevelVar{}

	logger := SetupLoggerWithWriter(&buf, level)
	logger.Debug("hidden")
	level.Set(slog.LevelDebug)
	logger.Debug("shown", "foo", "bar")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Error("debug output should be filtered until the level is lowered")
	}
	if !strings.Contains(output, `"foo":"bar"`) {
		t.Errorf("output should contain foo=bar, got: %s", output)
	}
}
