package keyboard

import (
	"time"
	"unicode"
)

// Classify maps an accepted key-down plus the current modifier snapshot and
// the resolved characters into zero or more semantic events.
//
// The table is evaluated in order and the first match wins: structural keys
// (Return, Backspace) beat character resolution, explicit shortcuts beat the
// generic Ctrl suppression, and plain character capture is the fallback.
// A Ctrl-held combination that matches nothing is suppressed entirely - the
// character was consumed as a shortcut, not typed as text.
func Classify(vk uint32, mods Modifiers, resolved []rune, at time.Time) []Event {
	switch {
	case vk == VKReturn && mods.Ctrl:
		return []Event{{Kind: KindCtrlEnter, Time: at}}
	case vk == VKReturn:
		return []Event{{Kind: KindEnter, Time: at}}
	case vk == VKBack:
		return []Event{{Kind: KindBackspace, Time: at}}
	case vk == VKV && mods.Ctrl && !mods.Shift:
		return []Event{{Kind: KindPaste, Time: at}}
	case vk == VKS && mods.Ctrl && mods.Shift:
		return []Event{{Kind: KindManualSave, Time: at}}
	case vk == VKP && mods.Ctrl && mods.Shift:
		return []Event{{Kind: KindTogglePause, Time: at}}
	case vk == VKN && mods.Ctrl && mods.Shift:
		return []Event{{Kind: KindNewSegment, Time: at}}
	case mods.Ctrl:
		return nil
	}

	// Fallback: one Character event per resolved code point. An IME
	// confirmation may deliver several runes for a single key-down.
	var events []Event
	for _, r := range resolved {
		if unicode.IsControl(r) {
			continue
		}
		events = append(events, Event{Kind: KindCharacter, Rune: r, Time: at})
	}
	return events
}
