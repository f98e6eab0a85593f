package keyboard

// Resolver converts an accepted key-down notification into printable
// characters under the live keyboard state.
//
// Implementations must query the layout/composition state at the moment of
// the event rather than a cached copy, and must avoid consuming dead-key or
// IME composition state where the platform allows a pure query. Control
// characters, CR and LF resolve to nothing - those are classified as
// structural events instead.
type Resolver interface {
	// Resolve returns zero or more code points for the key-down. A single
	// notification may yield several runes (IME multi-character confirmation).
	Resolve(vk, scan uint32, mods Modifiers) []rune
}

// layoutResolver resolves keys against a fixed US layout table. It backs the
// simulated source and the Linux event-device source, where no system
// character-composition service is consulted.
type layoutResolver struct{}

// NewLayoutResolver returns a Resolver for a fixed US keyboard layout.
func NewLayoutResolver() Resolver {
	return layoutResolver{}
}

func (layoutResolver) Resolve(vk, scan uint32, mods Modifiers) []rune {
	r, ok := usLayout(vk, mods.Shift)
	if !ok {
		return nil
	}
	return []rune{r}
}

// usLayout maps a virtual key to its US-layout character.
func usLayout(vk uint32, shift bool) (rune, bool) {
	switch {
	case vk >= VKA && vk <= VKZ:
		r := rune('a' + (vk - VKA))
		if shift {
			r = rune('A' + (vk - VKA))
		}
		return r, true
	case vk >= VK0 && vk <= VK9:
		if shift {
			return rune(")!@#$%^&*("[vk-VK0]), true
		}
		return rune('0' + (vk - VK0)), true
	case vk == VKSpace:
		return ' ', true
	}

	type pair struct{ base, shifted rune }
	oem := map[uint32]pair{
		VKOEM1:      {';', ':'},
		VKOEMPlus:   {'=', '+'},
		VKOEMComma:  {',', '<'},
		VKOEMMinus:  {'-', '_'},
		VKOEMPeriod: {'.', '>'},
		VKOEM2:      {'/', '?'},
		VKOEM3:      {'`', '~'},
		VKOEM4:      {'[', '{'},
		VKOEM5:      {'\\', '|'},
		VKOEM6:      {']', '}'},
		VKOEM7:      {'\'', '"'},
	}
	if p, ok := oem[vk]; ok {
		if shift {
			return p.shifted, true
		}
		return p.base, true
	}
	return 0, false
}
