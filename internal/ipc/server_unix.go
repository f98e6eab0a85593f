//go:build !windows

package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// listen creates the Unix socket listener, removing any stale socket file
// first. The socket is restricted to the owning user.
func listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	if err := cleanupSocket(socketPath); err != nil {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("set socket permissions: %w", err)
	}
	return listener, nil
}

// cleanupSocket removes a stale socket file. A non-socket file at the path
// is left alone.
func cleanupSocket(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSocket != 0 {
		return os.Remove(path)
	}
	return fmt.Errorf("path exists but is not a socket: %s", path)
}

func cleanupListener(socketPath string) {
	os.Remove(socketPath)
}

// dial connects to the daemon socket.
func dial(socketPath string) (net.Conn, error) {
	return net.Dial("unix", socketPath)
}
