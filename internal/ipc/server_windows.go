//go:build windows

package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Windows has no Unix sockets usable across all supported versions, so the
// server listens on an ephemeral loopback TCP port and writes the port
// number to the path the config calls socket_path.

func listen(portFile string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(portFile), 0o700); err != nil {
		return nil, fmt.Errorf("create port file directory: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen on loopback: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	if err := os.WriteFile(portFile, []byte(strconv.Itoa(port)), 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("write port file: %w", err)
	}
	return listener, nil
}

func cleanupListener(portFile string) {
	os.Remove(portFile)
}

func dial(portFile string) (net.Conn, error) {
	data, err := os.ReadFile(portFile)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse port file: %w", err)
	}
	return net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
}
