// Package notify raises desktop notifications for journal state changes
// (pause, resume, new segment). Notifications carry state only, never
// typed content.
package notify

import "sync"

// Notifier delivers a short user-visible notification.
type Notifier interface {
	// Notify shows a notification with a summary line and body text.
	Notify(summary, body string) error

	// Close releases any underlying connection.
	Close() error
}

// New returns the platform notifier. When no notification service is
// reachable, a no-op notifier is returned; delivery is best effort.
func New() Notifier {
	return newPlatformNotifier()
}

// Nop is a Notifier that does nothing.
type Nop struct{}

func (Nop) Notify(summary, body string) error { return nil }
func (Nop) Close() error                      { return nil }

// Recorder collects notifications for tests.
type Recorder struct {
	mu      sync.Mutex
	entries []RecordedNotification
}

// RecordedNotification is one captured notification.
type RecordedNotification struct {
	Summary string
	Body    string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(summary, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, RecordedNotification{Summary: summary, Body: body})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Entries returns the captured notifications in order.
func (r *Recorder) Entries() []RecordedNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedNotification, len(r.entries))
	copy(out, r.entries)
	return out
}
