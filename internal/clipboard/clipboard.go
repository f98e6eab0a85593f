// Package clipboard reads the system clipboard for paste and manual save
// entries. Clipboard content is only read in direct response to a user
// keystroke, never on a timer.
package clipboard

import "sync"

// Accessor reads text from the system clipboard.
type Accessor interface {
	// GetText returns the current clipboard text. Non-text content and
	// an unavailable clipboard yield an empty string with a nil error;
	// callers treat empty content as "nothing to record".
	GetText() (string, error)
}

// New returns the platform clipboard accessor.
func New() Accessor {
	return newPlatformAccessor()
}

// Memory is an in-memory Accessor for tests and the simulated capture
// source.
type Memory struct {
	mu   sync.Mutex
	text string
	err  error
}

// NewMemory creates an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

// Set replaces the clipboard text.
func (m *Memory) Set(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.err = nil
}

// SetError makes subsequent reads fail with err.
func (m *Memory) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) GetText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}
