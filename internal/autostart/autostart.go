// Package autostart registers the daemon to launch at login.
//
// Per platform:
//   - Windows: HKCU\Software\Microsoft\Windows\CurrentVersion\Run
//   - Linux:   XDG autostart .desktop entry
//   - macOS:   per-user LaunchAgent plist
package autostart

import "os"

const appName = "EchoType"

// Manager controls the launch-at-login registration for one executable.
type Manager interface {
	// Enable registers the executable to start at login.
	Enable() error

	// Disable removes the registration. Removing an absent registration
	// is not an error.
	Disable() error

	// Enabled reports whether the registration exists.
	Enabled() (bool, error)
}

// New returns the platform autostart manager for the given executable
// path. An empty path uses the current executable.
func New(execPath string) (Manager, error) {
	if execPath == "" {
		path, err := os.Executable()
		if err != nil {
			return nil, err
		}
		execPath = path
	}
	return newPlatformManager(execPath)
}
