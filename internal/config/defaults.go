// Package config handles configuration loading and validation for echotyped.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "EchoType"

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/EchoType/
//   - Linux:   ~/.local/share/EchoType/
//   - Windows: %LOCALAPPDATA%\EchoType\
//
// Falls back to ~/.echotype if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return linuxDataDir()
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/EchoType/
//   - Linux:   ~/.config/EchoType/
//   - Windows: %LOCALAPPDATA%\EchoType\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return linuxConfigDir()
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformLogDir returns the platform-specific diagnostic log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/EchoType/
//   - Linux:   ~/.local/share/EchoType/diag/
//   - Windows: %LOCALAPPDATA%\EchoType\diag\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		home := userHome()
		return filepath.Join(home, "Library", "Logs", appDirName)
	case "linux":
		return filepath.Join(linuxDataDir(), "diag")
	case "windows":
		return filepath.Join(windowsDataDir(), "diag")
	default:
		return filepath.Join(fallbackDataDir(), "diag")
	}
}

// PlatformRuntimeDir returns the platform-specific runtime directory for
// the control socket.
func PlatformRuntimeDir() string {
	switch runtime.GOOS {
	case "linux":
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, "echotype")
		}
		return filepath.Join("/tmp", fmt.Sprintf("echotype-%d", os.Getuid()))
	case "darwin":
		return filepath.Join("/tmp", fmt.Sprintf("echotype-%d", os.Getuid()))
	case "windows":
		return windowsDataDir()
	default:
		return filepath.Join("/tmp", fmt.Sprintf("echotype-%d", os.Getuid()))
	}
}

func userHome() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

func macOSDataDir() string {
	return filepath.Join(userHome(), "Library", "Application Support", appDirName)
}

// Linux paths follow the XDG Base Directory Specification.

func linuxDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appDirName)
	}
	return filepath.Join(userHome(), ".local", "share", appDirName)
}

func linuxConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appDirName)
	}
	return filepath.Join(userHome(), ".config", appDirName)
}

func windowsDataDir() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, appDirName)
	}
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appDirName)
	}
	return filepath.Join(userHome(), appDirName)
}

func fallbackDataDir() string {
	return filepath.Join(userHome(), ".echotype")
}

func defaultSocketPath() string {
	switch runtime.GOOS {
	case "windows":
		// Loopback TCP on Windows; this file carries the bound port.
		return filepath.Join(windowsDataDir(), "echotyped.port")
	default:
		return filepath.Join(PlatformRuntimeDir(), "echotyped.sock")
	}
}
