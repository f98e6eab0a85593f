//go:build linux

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
)

type linuxManager struct {
	execPath string
}

func newPlatformManager(execPath string) (Manager, error) {
	return &linuxManager{execPath: execPath}, nil
}

func (m *linuxManager) desktopPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "autostart", "echotype.desktop")
}

func (m *linuxManager) Enable() error {
	path := m.desktopPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create autostart directory: %w", err)
	}

	entry := desktopEntry(m.execPath)
	if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

func (m *linuxManager) Disable() error {
	if err := os.Remove(m.desktopPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}

func (m *linuxManager) Enabled() (bool, error) {
	_, err := os.Stat(m.desktopPath())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func desktopEntry(execPath string) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Comment=Typing journal daemon
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`, appName, execPath)
}
