package keyboard

import "sync"

// Modifiers is a snapshot of the Ctrl/Shift/Alt key state.
type Modifiers struct {
	Ctrl  bool
	Shift bool
	Alt   bool
}

// ModifierTracker maintains live modifier state from raw key-down/up
// notifications. The hook context mutates it and the classifier reads it,
// so every access takes the mutex; the critical section is a handful of
// field assignments and never touches I/O.
type ModifierTracker struct {
	mu   sync.Mutex
	mods Modifiers
}

// NewModifierTracker returns a tracker with all modifiers released.
func NewModifierTracker() *ModifierTracker {
	return &ModifierTracker{}
}

// KeyDown records a key-down notification. Non-modifier keys are ignored.
func (t *ModifierTracker) KeyDown(vk uint32) {
	t.set(vk, true)
}

// KeyUp records a key-up notification. Non-modifier keys are ignored.
func (t *ModifierTracker) KeyUp(vk uint32) {
	t.set(vk, false)
}

func (t *ModifierTracker) set(vk uint32, down bool) {
	t.mu.Lock()
	switch vk {
	case VKControl, VKLControl, VKRControl:
		t.mods.Ctrl = down
	case VKShift, VKLShift, VKRShift:
		t.mods.Shift = down
	case VKMenu, VKLMenu, VKRMenu:
		t.mods.Alt = down
	}
	t.mu.Unlock()
}

// Snapshot returns the current modifier state.
func (t *ModifierTracker) Snapshot() Modifiers {
	t.mu.Lock()
	m := t.mods
	t.mu.Unlock()
	return m
}

// Reset releases all modifiers. Used when a hook is reinstalled and the
// tracked state may no longer match reality.
func (t *ModifierTracker) Reset() {
	t.mu.Lock()
	t.mods = Modifiers{}
	t.mu.Unlock()
}
