// Package config handles configuration loading and validation for echotyped.
package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateJournal(&c.Journal)...)
	errs = append(errs, validateCapture(&c.Capture)...)
	errs = append(errs, validateStats(&c.Stats)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateIPC(&c.IPC)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateJournal(j *JournalConfig) ValidationErrors {
	var errs ValidationErrors

	if j.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "journal.dir",
			Message: "must not be empty",
		})
	}
	if j.IdleTimeoutSec < 1 {
		errs = append(errs, ValidationError{
			Field:   "journal.idle_timeout_sec",
			Message: fmt.Sprintf("must be at least 1, got %d", j.IdleTimeoutSec),
		})
	}
	return errs
}

func validateCapture(c *CaptureConfig) ValidationErrors {
	var errs ValidationErrors

	if c.DedupWindowMs < 0 || c.DedupWindowMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "capture.dedup_window_ms",
			Message: fmt.Sprintf("must be between 0 and 1000, got %d", c.DedupWindowMs),
		})
	}
	return errs
}

func validateStats(s *StatsConfig) ValidationErrors {
	var errs ValidationErrors

	if s.Enabled && s.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "stats.path",
			Message: "must not be empty when stats are enabled",
		})
	}
	if s.FlushIntervalSec < 1 {
		errs = append(errs, ValidationError{
			Field:   "stats.flush_interval_sec",
			Message: fmt.Sprintf("must be at least 1, got %d", s.FlushIntervalSec),
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error; got %q", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be text or json, got %q", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "file", "both":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("must be one of stdout, stderr, file, both; got %q", l.Output),
		})
	}

	if (l.Output == "file" || l.Output == "both") && l.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "must not be empty when output is file or both",
		})
	}
	return errs
}

func validateIPC(i *IPCConfig) ValidationErrors {
	var errs ValidationErrors

	if i.Enabled && i.SocketPath == "" {
		errs = append(errs, ValidationError{
			Field:   "ipc.socket_path",
			Message: "must not be empty when IPC is enabled",
		})
	}
	if i.TimeoutSec < 1 {
		errs = append(errs, ValidationError{
			Field:   "ipc.timeout_sec",
			Message: fmt.Sprintf("must be at least 1, got %d", i.TimeoutSec),
		})
	}
	return errs
}
