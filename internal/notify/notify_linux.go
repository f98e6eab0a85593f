//go:build linux

package notify

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// dbusNotifier talks to org.freedesktop.Notifications on the session bus.
type dbusNotifier struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

func newPlatformNotifier() Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		// Headless session or no bus. Notifications are best effort.
		return Nop{}
	}
	return &dbusNotifier{conn: conn}
}

func (n *dbusNotifier) Notify(summary, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	obj := n.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		"EchoType",          // app_name
		uint32(0),           // replaces_id
		"input-keyboard",    // app_icon
		summary,             // summary
		body,                // body
		[]string{},          // actions
		map[string]dbus.Variant{}, // hints
		int32(5000),         // expire_timeout ms
	)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}
	return nil
}

func (n *dbusNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		err := n.conn.Close()
		n.conn = nil
		return err
	}
	return nil
}
