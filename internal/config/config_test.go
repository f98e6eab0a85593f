package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, Version, cfg.Version)
	assert.Equal(t, 30, cfg.Journal.IdleTimeoutSec)
	assert.Equal(t, 30, cfg.Capture.DedupWindowMs)
	assert.True(t, cfg.Stats.Enabled)
	assert.True(t, cfg.IPC.Enabled)
	assert.NotEmpty(t, cfg.Journal.Dir)
	assert.NotEmpty(t, cfg.IPC.SocketPath)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = 1

[journal]
dir = "/tmp/echotype-test/logs"
idle_timeout_sec = 60
sync_on_write = true

[capture]
dedup_window_ms = 50

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/echotype-test/logs", cfg.Journal.Dir)
	assert.Equal(t, 60, cfg.Journal.IdleTimeoutSec)
	assert.True(t, cfg.Journal.SyncOnWrite)
	assert.Equal(t, 50, cfg.Capture.DedupWindowMs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unspecified fields keep their defaults.
	assert.True(t, cfg.Stats.Enabled)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Journal.IdleTimeoutSec, cfg.Journal.IdleTimeoutSec)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
journal:
  dir: /tmp/echotype-yaml/logs
  idle_timeout_sec: 45
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/echotype-yaml/logs", cfg.Journal.Dir)
	assert.Equal(t, 45, cfg.Journal.IdleTimeoutSec)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ECHOTYPE_JOURNAL_DIR", "/tmp/env-logs")
	t.Setenv("ECHOTYPE_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-logs", cfg.Journal.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "empty journal dir",
			mutate: func(c *Config) { c.Journal.Dir = "" },
			field:  "journal.dir",
		},
		{
			name:   "zero idle timeout",
			mutate: func(c *Config) { c.Journal.IdleTimeoutSec = 0 },
			field:  "journal.idle_timeout_sec",
		},
		{
			name:   "dedup window too large",
			mutate: func(c *Config) { c.Capture.DedupWindowMs = 5000 },
			field:  "capture.dedup_window_ms",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			field:  "logging.level",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			field:  "logging.format",
		},
		{
			name:   "ipc enabled without socket",
			mutate: func(c *Config) { c.IPC.SocketPath = "" },
			field:  "ipc.socket_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Journal.IdleTimeoutSec = 90
	cfg.Journal.Dir = "/tmp/roundtrip/logs"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90, loaded.Journal.IdleTimeoutSec)
	assert.Equal(t, "/tmp/roundtrip/logs", loaded.Journal.Dir)
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, cfg)
	assert.FileExists(t, path)

	_, created, err = LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoaderWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 1\n"), 0o600))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)
	defer loader.Close()

	changed := make(chan *Config, 1)
	loader.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, loader.Watch())

	updated := "version = 1\n\n[journal]\nidle_timeout_sec = 75\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	select {
	case cfg := <-changed:
		assert.Equal(t, 75, cfg.Journal.IdleTimeoutSec)
		assert.Equal(t, 75, loader.Config().Journal.IdleTimeoutSec)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	clone.Journal.Dir = "/elsewhere"
	assert.NotEqual(t, cfg.Journal.Dir, clone.Journal.Dir)
}
