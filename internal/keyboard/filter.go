package keyboard

import (
	"sync"
	"time"
)

// DedupWindow is the default interval during which a repeated notification
// for the same physical key is suppressed. The platform sometimes redelivers one
// hardware event to multiple hook chains; anything faster than this window
// cannot be a second human keypress of the same key.
const DedupWindow = 30 * time.Millisecond

// Filter decides ACCEPT or DROP for raw hardware key notifications.
//
// Two rules, in order:
//  1. software-injected notifications are dropped unconditionally, which
//     prevents feedback loops from the platform's own key-synthesis APIs;
//  2. a notification matching the last accepted (VK, Scan) pair within
//     DedupWindow is dropped as a redelivery.
//
// The filter runs inside the global input-delivery path. The mutex guards
// only the dedup record update and is held for a few field assignments;
// Accept performs no allocation.
type Filter struct {
	mu       sync.Mutex
	lastVK   uint32
	lastScan uint32
	lastTime time.Time
	seen     bool
	window   time.Duration

	now func() time.Time
}

// NewFilter returns a Filter with an empty dedup record and the default
// window.
func NewFilter() *Filter {
	return NewFilterWindow(DedupWindow)
}

// NewFilterWindow returns a Filter with a custom suppression window.
// Non-positive windows fall back to DedupWindow.
func NewFilterWindow(window time.Duration) *Filter {
	if window <= 0 {
		window = DedupWindow
	}
	return &Filter{window: window, now: time.Now}
}

// Accept reports whether the notification should be processed. On ACCEPT the
// dedup record is updated to this notification before returning, so the
// decision and the bookkeeping cannot race with the next notification.
func (f *Filter) Accept(k RawKey) bool {
	if k.Injected {
		return false
	}

	when := k.When
	if when.IsZero() {
		when = f.now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen && f.lastVK == k.VK && f.lastScan == k.Scan &&
		when.Sub(f.lastTime) < f.window {
		return false
	}

	f.lastVK = k.VK
	f.lastScan = k.Scan
	f.lastTime = when
	f.seen = true
	return true
}

// Reset clears the dedup record.
func (f *Filter) Reset() {
	f.mu.Lock()
	f.seen = false
	f.mu.Unlock()
}
