// Package config handles configuration loading, validation, and management
// for echotyped.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Journal configuration for the typing log files.
	Journal JournalConfig `toml:"journal" json:"journal" yaml:"journal"`

	// Capture configuration for the keyboard hook.
	Capture CaptureConfig `toml:"capture" json:"capture" yaml:"capture"`

	// Stats configuration for the daily counters database.
	Stats StatsConfig `toml:"stats" json:"stats" yaml:"stats"`

	// Logging configuration for diagnostic output.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// IPC configuration for the control socket.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`

	// Notify configuration for desktop notifications.
	Notify NotifyConfig `toml:"notify" json:"notify" yaml:"notify"`

	// Autostart configuration for launch-at-login.
	Autostart AutostartConfig `toml:"autostart" json:"autostart" yaml:"autostart"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// JournalConfig holds journal file configuration.
type JournalConfig struct {
	// Dir is the directory holding the journal files.
	Dir string `toml:"dir" json:"dir" yaml:"dir"`

	// IdleTimeoutSec is the inactivity span in seconds after which the
	// next keystroke gets a fresh timestamp.
	IdleTimeoutSec int `toml:"idle_timeout_sec" json:"idle_timeout_sec" yaml:"idle_timeout_sec"`

	// SyncOnWrite additionally fsyncs the journal after every write.
	SyncOnWrite bool `toml:"sync_on_write" json:"sync_on_write" yaml:"sync_on_write"`

	// StartPaused starts the daemon with journaling paused.
	StartPaused bool `toml:"start_paused" json:"start_paused" yaml:"start_paused"`
}

// CaptureConfig holds keyboard capture configuration.
type CaptureConfig struct {
	// DedupWindowMs is the window in milliseconds within which a repeat
	// of the same physical key is dropped as a duplicate.
	DedupWindowMs int `toml:"dedup_window_ms" json:"dedup_window_ms" yaml:"dedup_window_ms"`
}

// StatsConfig holds the daily statistics database configuration.
type StatsConfig struct {
	// Enabled determines whether daily counters are recorded.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the path to the SQLite statistics database.
	Path string `toml:"path" json:"path" yaml:"path"`

	// FlushIntervalSec is how often in-memory counters are flushed.
	FlushIntervalSec int `toml:"flush_interval_sec" json:"flush_interval_sec" yaml:"flush_interval_sec"`
}

// LoggingConfig holds diagnostic logging configuration. Diagnostic logs are
// separate from the journals and never contain typed content.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output uses a file).
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// IPCConfig holds control socket configuration.
type IPCConfig struct {
	// Enabled determines whether the IPC server is started.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// SocketPath is the path to the Unix socket. On Windows a loopback
	// TCP listener is used instead and this holds the port file path.
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`

	// TimeoutSec is the per-connection read/write timeout.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// NotifyConfig holds desktop notification configuration.
type NotifyConfig struct {
	// Enabled determines whether state changes raise desktop
	// notifications.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// AutostartConfig holds launch-at-login configuration.
type AutostartConfig struct {
	// Enabled determines whether the daemon registers itself to start
	// at login.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()

	return &Config{
		Version: Version,
		Journal: JournalConfig{
			Dir:            filepath.Join(dir, "logs"),
			IdleTimeoutSec: 30,
			SyncOnWrite:    false,
			StartPaused:    false,
		},
		Capture: CaptureConfig{
			DedupWindowMs: 30,
		},
		Stats: StatsConfig{
			Enabled:          true,
			Path:             filepath.Join(dir, "stats.db"),
			FlushIntervalSec: 10,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "file",
			FilePath: filepath.Join(PlatformLogDir(), "echotyped.log"),
		},
		IPC: IPCConfig{
			Enabled:    true,
			SocketPath: defaultSocketPath(),
			TimeoutSec: 10,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
		Autostart: AutostartConfig{
			Enabled: false,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// DataDir returns the base echotype data directory. The
// ECHOTYPE_DATA_DIR environment variable overrides the platform default.
func DataDir() string {
	if envDir := os.Getenv("ECHOTYPE_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Variables are prefixed with ECHOTYPE_.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("ECHOTYPE_JOURNAL_DIR"); v != "" {
		c.Journal.Dir = v
	}
	if v := os.Getenv("ECHOTYPE_STATS_PATH"); v != "" {
		c.Stats.Path = v
	}
	if v := os.Getenv("ECHOTYPE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ECHOTYPE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("ECHOTYPE_SOCKET_PATH"); v != "" {
		c.IPC.SocketPath = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates all directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Journal.Dir,
		filepath.Dir(c.Stats.Path),
		filepath.Dir(c.Logging.FilePath),
	}
	if c.IPC.SocketPath != "" {
		dirs = append(dirs, filepath.Dir(c.IPC.SocketPath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Config{
		Version:   c.Version,
		Journal:   c.Journal,
		Capture:   c.Capture,
		Stats:     c.Stats,
		Logging:   c.Logging,
		IPC:       c.IPC,
		Notify:    c.Notify,
		Autostart: c.Autostart,
	}
	return clone
}

// SaveConfig writes the configuration to a TOML file.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
