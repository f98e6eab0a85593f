//go:build windows

package keyboard

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetKeyboardState    = user32.NewProc("GetKeyboardState")
	procToUnicode           = user32.NewProc("ToUnicode")
)

const (
	whKeyboardLL = 13

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmQuit       = 0x0012

	// llkhfInjected marks notifications synthesized via SendInput,
	// keybd_event and friends.
	llkhfInjected = 0x10

	// toUnicodeNoSideEffects (bit 2, Windows 10 1607+) makes ToUnicode
	// query the layout without consuming dead-key/composition state.
	toUnicodeNoSideEffects = 0x4
)

// kbdllHookStruct mirrors KBDLLHOOKSTRUCT.
type kbdllHookStruct struct {
	VKCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// winMsg mirrors MSG.
type winMsg struct {
	HWND    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// The low-level hook callback carries no user context pointer, so the
// active pipeline lives in process-wide state with an explicit
// init-on-install / clear-on-uninstall lifecycle.
var hookShared struct {
	mu   sync.Mutex
	pipe *pipeline
}

func setHookPipeline(p *pipeline) {
	hookShared.mu.Lock()
	hookShared.pipe = p
	hookShared.mu.Unlock()
}

func hookPipeline() *pipeline {
	hookShared.mu.Lock()
	p := hookShared.pipe
	hookShared.mu.Unlock()
	return p
}

// hookCallback is registered once; windows.NewCallback allocations are
// never released.
var hookCallback = windows.NewCallback(lowLevelKeyboardProc)

// lowLevelKeyboardProc runs on the hook thread inside the global input
// delivery path. It must return quickly: filter, resolve, classify, hand
// off through the channel, and always chain to the next hook.
func lowLevelKeyboardProc(code, wparam, lparam uintptr) uintptr {
	if int32(code) >= 0 {
		kbd := (*kbdllHookStruct)(unsafe.Pointer(lparam))
		if p := hookPipeline(); p != nil {
			raw := RawKey{
				VK:       kbd.VKCode,
				Scan:     kbd.ScanCode,
				Injected: kbd.Flags&llkhfInjected != 0,
				When:     time.Now(),
			}
			switch wparam {
			case wmKeyDown, wmSysKeyDown:
				p.keyDown(raw)
			case wmKeyUp, wmSysKeyUp:
				p.keyUp(raw)
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, code, wparam, lparam)
	return ret
}

// windowsResolver resolves characters through the live keyboard layout and
// IME state via GetKeyboardState + ToUnicode.
type windowsResolver struct{}

func (windowsResolver) Resolve(vk, scan uint32, _ Modifiers) []rune {
	// Full 256-key state at the moment of the event, not a cached copy:
	// composed characters depend on transient dead-key state.
	var state [256]byte
	if r, _, _ := procGetKeyboardState.Call(uintptr(unsafe.Pointer(&state[0]))); r == 0 {
		return nil
	}

	var buf [8]uint16
	n, _, _ := procToUnicode.Call(
		uintptr(vk),
		uintptr(scan),
		uintptr(unsafe.Pointer(&state[0])),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		toUnicodeNoSideEffects,
	)
	count := int32(n)
	if count <= 0 {
		// Dead key (-1) or no translation (0).
		return nil
	}
	return utf16.Decode(buf[:count])
}

// windowsSource installs a WH_KEYBOARD_LL hook on a dedicated OS thread and
// runs the message pump required to keep it alive. GetMessageW blocks with
// zero CPU until input arrives or WM_QUIT is posted.
type windowsSource struct {
	mu       sync.Mutex
	pipe     *pipeline
	running  bool
	threadID uint32
	done     chan struct{}
}

func newPlatformSource(cfg Config) Source {
	return &windowsSource{pipe: newPipeline(windowsResolver{}, cfg)}
}

// Available reports hook availability. WH_KEYBOARD_LL needs no special
// privileges on Windows.
func (w *windowsSource) Available() (bool, string) {
	return true, "Windows low-level keyboard hook available"
}

// Start installs the hook and begins pumping messages. It returns an
// ErrHookInstall-wrapped error when installation fails.
func (w *windowsSource) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.done = make(chan struct{})
	w.mu.Unlock()

	ready := make(chan error, 1)
	go w.pumpLoop(ready)

	if err := <-ready; err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				w.Stop()
			case <-w.done:
			}
		}()
	}
	return nil
}

// pumpLoop owns the hook for its whole lifetime. The hook must be installed
// and the messages pumped on the same OS thread.
func (w *windowsSource) pumpLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	hook, _, callErr := procSetWindowsHookExW.Call(whKeyboardLL, hookCallback, 0, 0)
	if hook == 0 {
		ready <- fmt.Errorf("%w: %v", ErrHookInstall, callErr)
		return
	}

	w.pipe.filter.Reset()
	w.pipe.tracker.Reset()
	setHookPipeline(w.pipe)

	w.mu.Lock()
	w.threadID = windows.GetCurrentThreadId()
	w.mu.Unlock()

	ready <- nil

	var msg winMsg
	for {
		// GetMessageW returns 0 for WM_QUIT and -1 on error.
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(r) <= 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}

	setHookPipeline(nil)
	procUnhookWindowsHookEx.Call(hook)
	close(w.pipe.events)
}

// Stop releases the pump by posting WM_QUIT to the hook thread, then waits
// for the hook to be uninstalled.
func (w *windowsSource) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	threadID := w.threadID
	done := w.done
	w.mu.Unlock()

	if threadID != 0 {
		procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	}
	if done != nil {
		<-done
	}
	return nil
}

// Events returns the semantic event channel.
func (w *windowsSource) Events() <-chan Event {
	return w.pipe.events
}
