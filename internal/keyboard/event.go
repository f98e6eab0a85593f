// Package keyboard implements the system-wide capture pipeline for echotyped.
//
// A raw hardware key notification flows through four stages:
//
//	raw notification → Filter (injected/duplicate rejection)
//	                 → ModifierTracker (Ctrl/Shift/Alt state)
//	                 → Resolver (virtual key → printable runes)
//	                 → Classify (semantic Event)
//
// The resulting semantic events travel over a strictly FIFO channel from the
// platform hook context to the consumer. The hook side never blocks: every
// stage runs in bounded time and the channel hand-off is non-blocking.
//
// Platform support:
//   - Windows: WH_KEYBOARD_LL low-level hook with a dedicated message pump
//   - Linux: /dev/input event devices (requires 'input' group or root)
//   - other: simulated source only
package keyboard

import "time"

// Kind identifies the semantic meaning of a captured event.
type Kind int

const (
	// KindCharacter is a printable character, carried in Event.Rune.
	KindCharacter Kind = iota
	// KindEnter is a plain Return press: line break plus a fresh timestamp.
	KindEnter
	// KindCtrlEnter is Ctrl+Return: line break continuing the same
	// timestamp context.
	KindCtrlEnter
	// KindBackspace is a Backspace press, journaled as a placeholder glyph.
	KindBackspace
	// KindPaste is Ctrl+V; the consumer reads the clipboard for content.
	KindPaste
	// KindManualSave is Ctrl+Shift+S: snapshot the clipboard into the journal.
	KindManualSave
	// KindTogglePause is Ctrl+Shift+P: flip the journal pause state.
	KindTogglePause
	// KindNewSegment is Ctrl+Shift+N: start a fresh journal segment file.
	KindNewSegment
)

// String returns the event kind name.
func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindEnter:
		return "enter"
	case KindCtrlEnter:
		return "ctrl-enter"
	case KindBackspace:
		return "backspace"
	case KindPaste:
		return "paste"
	case KindManualSave:
		return "manual-save"
	case KindTogglePause:
		return "toggle-pause"
	case KindNewSegment:
		return "new-segment"
	default:
		return "unknown"
	}
}

// Event is a semantic keyboard event. Events are immutable once created and
// consumed exactly once by the daemon loop.
type Event struct {
	Kind Kind
	// Rune is the resolved character for KindCharacter events.
	Rune rune
	// Time is when the underlying key notification was accepted.
	Time time.Time
}

// RawKey is a raw hardware key notification as delivered by the platform.
type RawKey struct {
	// VK is the platform-normalized virtual key code (Windows VK_* values;
	// other platforms map their native codes onto the same space).
	VK uint32
	// Scan is the hardware scan code.
	Scan uint32
	// Injected is set when the notification was synthesized by software
	// rather than generated by physical hardware.
	Injected bool
	// When is the delivery instant. The zero value means "now".
	When time.Time
}
