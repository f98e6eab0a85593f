package keyboard

// Virtual key codes, following the Windows VK_* value space. Non-Windows
// sources normalize their native key codes onto these values before the
// pipeline sees them.
const (
	VKBack    uint32 = 0x08
	VKTab     uint32 = 0x09
	VKReturn  uint32 = 0x0D
	VKShift   uint32 = 0x10
	VKControl uint32 = 0x11
	VKMenu    uint32 = 0x12 // Alt
	VKEscape  uint32 = 0x1B
	VKSpace   uint32 = 0x20

	// 0x30-0x39 match ASCII '0'-'9'; 0x41-0x5A match ASCII 'A'-'Z'.
	VK0 uint32 = 0x30
	VK9 uint32 = 0x39
	VKA uint32 = 0x41
	VKZ uint32 = 0x5A

	VKN uint32 = 0x4E
	VKP uint32 = 0x50
	VKS uint32 = 0x53
	VKV uint32 = 0x56

	VKLShift   uint32 = 0xA0
	VKRShift   uint32 = 0xA1
	VKLControl uint32 = 0xA2
	VKRControl uint32 = 0xA3
	VKLMenu    uint32 = 0xA4
	VKRMenu    uint32 = 0xA5

	VKOEM1      uint32 = 0xBA // ;:
	VKOEMPlus   uint32 = 0xBB // =+
	VKOEMComma  uint32 = 0xBC // ,<
	VKOEMMinus  uint32 = 0xBD // -_
	VKOEMPeriod uint32 = 0xBE // .>
	VKOEM2      uint32 = 0xBF // /?
	VKOEM3      uint32 = 0xC0 // `~
	VKOEM4      uint32 = 0xDB // [{
	VKOEM5      uint32 = 0xDC // \|
	VKOEM6      uint32 = 0xDD // ]}
	VKOEM7      uint32 = 0xDE // '"
)

// isModifierVK reports whether vk is one of the Ctrl/Shift/Alt keys,
// generic or sided.
func isModifierVK(vk uint32) bool {
	switch vk {
	case VKShift, VKControl, VKMenu,
		VKLShift, VKRShift, VKLControl, VKRControl, VKLMenu, VKRMenu:
		return true
	}
	return false
}
