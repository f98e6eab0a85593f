//go:build linux

package keyboard

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// linuxSource reads key events from /dev/input event devices. Characters are
// resolved against the fixed US layout table; the event-device layer sits
// below the display server, so no composition service is available here.
//
// evdev carries no injected-event flag: notifications written through
// uinput are indistinguishable from hardware. The dedup filter still
// applies.
type linuxSource struct {
	mu      sync.Mutex
	pipe    *pipeline
	running bool
	cancel  context.CancelFunc
	files   []*os.File
	wg      sync.WaitGroup
}

func newPlatformSource(cfg Config) Source {
	return &linuxSource{pipe: newPipeline(NewLayoutResolver(), cfg)}
}

// Available checks whether at least one keyboard device is readable.
func (l *linuxSource) Available() (bool, string) {
	devices, err := findKeyboardDevices()
	if err != nil {
		return false, fmt.Sprintf("cannot enumerate input devices: %v", err)
	}
	if len(devices) == 0 {
		return false, "no keyboard devices found"
	}
	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err == nil {
			f.Close()
			return true, fmt.Sprintf("keyboard device: %s", dev)
		}
	}
	return false, "cannot read keyboard devices (need 'input' group or root)"
}

// findKeyboardDevices locates /dev/input nodes that expose key events.
func findKeyboardDevices() ([]string, error) {
	var devices []string

	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var currentHandler string
	isKeyboard := false

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "H: Handlers=") {
			for _, part := range strings.Fields(line) {
				if strings.HasPrefix(part, "event") {
					currentHandler = "/dev/input/" + part
				}
			}
		}

		if strings.HasPrefix(line, "B: KEY=") && len(line) > 10 {
			isKeyboard = true
		}

		if line == "" {
			if isKeyboard && currentHandler != "" {
				devices = append(devices, currentHandler)
			}
			currentHandler = ""
			isKeyboard = false
		}
	}

	matches, _ := filepath.Glob("/dev/input/by-id/*-kbd")
	for _, m := range matches {
		resolved, err := filepath.EvalSymlinks(m)
		if err != nil {
			continue
		}
		seen := false
		for _, d := range devices {
			if d == resolved {
				seen = true
				break
			}
		}
		if !seen {
			devices = append(devices, resolved)
		}
	}

	return devices, nil
}

// input_event wire constants.
const (
	evKey          = 1
	keyRelease     = 0
	keyPress       = 1
	keyAutoRepeat  = 2
	inputEventSize = 24 // struct input_event on 64-bit: timeval(16) + type(2) + code(2) + value(4)
)

// Start opens the keyboard devices and spawns one reader per device.
func (l *linuxSource) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrAlreadyRunning
	}

	devices, err := findKeyboardDevices()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHookInstall, err)
	}

	var files []*os.File
	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no readable keyboard devices", ErrHookInstall)
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.files = files
	l.running = true
	l.pipe.filter.Reset()
	l.pipe.tracker.Reset()

	for _, f := range files {
		l.wg.Add(1)
		go l.readLoop(runCtx, f)
	}

	go func() {
		l.wg.Wait()
		close(l.pipe.events)
	}()

	return nil
}

// readLoop parses input_event records from one device and feeds the
// pipeline. Closing the file unblocks the read.
func (l *linuxSource) readLoop(ctx context.Context, f *os.File) {
	defer l.wg.Done()

	buf := make([]byte, inputEventSize)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		if n < inputEventSize {
			continue
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		evType := binary.LittleEndian.Uint16(buf[16:18])
		code := binary.LittleEndian.Uint16(buf[18:20])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))
		if evType != evKey {
			continue
		}

		vk, ok := linuxKeyToVK(code)
		if !ok {
			continue
		}

		switch value {
		case keyPress, keyAutoRepeat:
			// Auto-repeat matches the hook-based platforms, where the
			// hardware repeat redelivers key-down notifications.
			l.pipe.keyDown(RawKey{VK: vk, Scan: uint32(code)})
		case keyRelease:
			l.pipe.keyUp(RawKey{VK: vk, Scan: uint32(code)})
		}
	}
}

// Stop cancels the readers and closes the devices.
func (l *linuxSource) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	cancel := l.cancel
	files := l.files
	l.files = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, f := range files {
		f.Close()
	}
	l.wg.Wait()
	return nil
}

// Events returns the semantic event channel.
func (l *linuxSource) Events() <-chan Event {
	return l.pipe.events
}

// linuxKeyToVK normalizes a Linux key code onto the shared VK space.
func linuxKeyToVK(code uint16) (uint32, bool) {
	// Letter and digit rows.
	switch code {
	case 16, 17, 18, 19, 20, 21, 22, 23, 24, 25: // qwertyuiop
		return VKA + uint32("QWERTYUIOP"[code-16]-'A'), true
	case 30, 31, 32, 33, 34, 35, 36, 37, 38: // asdfghjkl
		return VKA + uint32("ASDFGHJKL"[code-30]-'A'), true
	case 44, 45, 46, 47, 48, 49, 50: // zxcvbnm
		return VKA + uint32("ZXCVBNM"[code-44]-'A'), true
	case 11: // KEY_0
		return VK0, true
	}
	if code >= 2 && code <= 10 { // KEY_1..KEY_9
		return VK0 + uint32(code-1), true
	}

	switch code {
	case 28: // KEY_ENTER
		return VKReturn, true
	case 96: // KEY_KPENTER
		return VKReturn, true
	case 14: // KEY_BACKSPACE
		return VKBack, true
	case 15: // KEY_TAB
		return VKTab, true
	case 57: // KEY_SPACE
		return VKSpace, true
	case 1: // KEY_ESC
		return VKEscape, true
	case 29: // KEY_LEFTCTRL
		return VKLControl, true
	case 97: // KEY_RIGHTCTRL
		return VKRControl, true
	case 42: // KEY_LEFTSHIFT
		return VKLShift, true
	case 54: // KEY_RIGHTSHIFT
		return VKRShift, true
	case 56: // KEY_LEFTALT
		return VKLMenu, true
	case 100: // KEY_RIGHTALT
		return VKRMenu, true
	case 12: // KEY_MINUS
		return VKOEMMinus, true
	case 13: // KEY_EQUAL
		return VKOEMPlus, true
	case 26: // KEY_LEFTBRACE
		return VKOEM4, true
	case 27: // KEY_RIGHTBRACE
		return VKOEM6, true
	case 39: // KEY_SEMICOLON
		return VKOEM1, true
	case 40: // KEY_APOSTROPHE
		return VKOEM7, true
	case 41: // KEY_GRAVE
		return VKOEM3, true
	case 43: // KEY_BACKSLASH
		return VKOEM5, true
	case 51: // KEY_COMMA
		return VKOEMComma, true
	case 52: // KEY_DOT
		return VKOEMPeriod, true
	case 53: // KEY_SLASH
		return VKOEM2, true
	}
	return 0, false
}
