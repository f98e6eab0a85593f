package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if got := LevelString(test.level); got != test.expected {
				t.Errorf("expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		hasError bool
	}{
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"", FormatText, false},
		{"xml", FormatText, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			format, err := ParseFormat(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && format != test.expected {
				t.Errorf("expected %v, got %v", test.expected, format)
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "echotyped.log")

	logger, err := New(&Config{
		Level:    LevelInfo,
		Format:   FormatText,
		Output:   "file",
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("daemon started", "version", "1.0.0")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "daemon started") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestRedaction(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "echotyped.log")

	logger, err := New(&Config{
		Level:    LevelInfo,
		Format:   FormatText,
		Output:   "file",
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Warn("write failed", "clipboard_content", "my secret diary entry")
	logger.Close()

	data, _ := os.ReadFile(logPath)
	if strings.Contains(string(data), "my secret diary entry") {
		t.Error("captured content leaked into the operational log")
	}
	if !strings.Contains(string(data), "[REDACTED]") {
		t.Errorf("expected redaction marker, got: %s", data)
	}
}

func TestSetLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "echotyped.log")

	logger, err := New(&Config{
		Level:    LevelInfo,
		Format:   FormatText,
		Output:   "file",
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("invisible")
	logger.SetLevel(LevelDebug)
	logger.Debug("visible now")
	logger.Close()

	data, _ := os.ReadFile(logPath)
	if strings.Contains(string(data), "invisible") {
		t.Error("debug entry logged below threshold")
	}
	if !strings.Contains(string(data), "visible now") {
		t.Errorf("debug entry missing after SetLevel: %s", data)
	}
}

func TestWithComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "echotyped.log")

	logger, err := New(&Config{
		Level:    LevelInfo,
		Format:   FormatJSON,
		Output:   "file",
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.WithComponent("ipc").Info("listening")
	logger.Close()

	data, _ := os.ReadFile(logPath)
	if !strings.Contains(string(data), `"component":"ipc"`) {
		t.Errorf("component attribute missing: %s", data)
	}
}
