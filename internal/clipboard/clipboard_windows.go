//go:build windows

package clipboard

import (
	"syscall"
	"unsafe"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	openClipboard    = user32.NewProc("OpenClipboard")
	closeClipboard   = user32.NewProc("CloseClipboard")
	getClipboardData = user32.NewProc("GetClipboardData")
	globalLock       = kernel32.NewProc("GlobalLock")
	globalUnlock     = kernel32.NewProc("GlobalUnlock")
)

const (
	cfText        = 1
	cfUnicodeText = 13
)

type windowsAccessor struct{}

func newPlatformAccessor() Accessor {
	return &windowsAccessor{}
}

func (w *windowsAccessor) GetText() (string, error) {
	// A failed open usually means another process holds the clipboard;
	// treat it as empty rather than erroring out of the event loop.
	ret, _, _ := openClipboard.Call(0)
	if ret == 0 {
		return "", nil
	}
	defer closeClipboard.Call()

	handle, _, _ := getClipboardData.Call(cfUnicodeText)
	if handle == 0 {
		handle, _, _ = getClipboardData.Call(cfText)
		if handle == 0 {
			return "", nil
		}
		return readANSI(handle), nil
	}
	return readUnicode(handle), nil
}

func readUnicode(handle uintptr) string {
	ptr, _, _ := globalLock.Call(handle)
	if ptr == 0 {
		return ""
	}
	defer globalUnlock.Call(handle)

	var chars []uint16
	for i := 0; ; i++ {
		c := *(*uint16)(unsafe.Pointer(ptr + uintptr(i*2)))
		if c == 0 {
			break
		}
		chars = append(chars, c)
	}
	return syscall.UTF16ToString(chars)
}

func readANSI(handle uintptr) string {
	ptr, _, _ := globalLock.Call(handle)
	if ptr == 0 {
		return ""
	}
	defer globalUnlock.Call(handle)

	var bytes []byte
	for i := 0; ; i++ {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
		if b == 0 {
			break
		}
		bytes = append(bytes, b)
	}
	return string(bytes)
}
