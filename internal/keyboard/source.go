package keyboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Errors returned by capture sources.
var (
	// ErrNotAvailable is returned when keyboard capture is not available
	// on this platform.
	ErrNotAvailable = errors.New("keyboard capture not available on this platform")

	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New("capture source already running")

	// ErrHookInstall is returned when the platform hook cannot be
	// installed. This is fatal: the process cannot capture input.
	ErrHookInstall = errors.New("failed to install keyboard hook")
)

// eventBuffer is the semantic event channel capacity. Sized so that bursts
// (IME confirmations, fast typing while the consumer flushes to disk) never
// hit the non-blocking send's drop path in practice.
const eventBuffer = 1024

// Source captures keyboard input and delivers semantic events over a
// strictly FIFO single-producer channel.
type Source interface {
	// Start begins capture. It returns once the platform hook is installed;
	// delivery continues until Stop or context cancellation.
	Start(ctx context.Context) error

	// Stop uninstalls the hook and closes the event channel.
	Stop() error

	// Events returns the semantic event channel.
	Events() <-chan Event

	// Available reports whether capture can work on this platform with the
	// current permissions, with a human-readable explanation.
	Available() (bool, string)
}

// Config tunes the capture pipeline.
type Config struct {
	// DedupWindow overrides the duplicate-suppression window when
	// positive.
	DedupWindow time.Duration
}

// New returns the capture Source for the current platform with default
// tuning.
func New() Source {
	return NewSource(Config{})
}

// NewSource returns the capture Source for the current platform.
func NewSource(cfg Config) Source {
	return newPlatformSource(cfg)
}

// pipeline is the shared filter → tracker → resolver → classifier chain.
// Platform sources feed raw notifications in; semantic events come out on
// the channel. All methods are safe to call from the privileged hook
// context: bounded time, fine-grained locks, non-blocking channel send.
type pipeline struct {
	filter   *Filter
	tracker  *ModifierTracker
	resolver Resolver
	events   chan Event
	dropped  atomic.Uint64
}

func newPipeline(r Resolver, cfg Config) *pipeline {
	return &pipeline{
		filter:   NewFilterWindow(cfg.DedupWindow),
		tracker:  NewModifierTracker(),
		resolver: r,
		events:   make(chan Event, eventBuffer),
	}
}

// keyDown processes a raw key-down notification end to end.
func (p *pipeline) keyDown(k RawKey) {
	p.tracker.KeyDown(k.VK)

	if !p.filter.Accept(k) {
		return
	}
	if isModifierVK(k.VK) {
		return
	}

	mods := p.tracker.Snapshot()
	var resolved []rune
	if !mods.Ctrl {
		// Ctrl-held characters are consumed as shortcuts; skip the
		// layout query entirely so the hot path stays short.
		resolved = p.resolver.Resolve(k.VK, k.Scan, mods)
	}

	at := k.When
	if at.IsZero() {
		at = time.Now()
	}
	for _, ev := range Classify(k.VK, mods, resolved, at) {
		p.emit(ev)
	}
}

// keyUp processes a raw key-up notification. Only modifier state changes.
func (p *pipeline) keyUp(k RawKey) {
	p.tracker.KeyUp(k.VK)
}

// emit hands an event to the consumer without blocking the hook context.
func (p *pipeline) emit(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns the number of events lost to a full channel.
func (p *pipeline) Dropped() uint64 {
	return p.dropped.Load()
}

// SimulatedSource drives the full capture pipeline from scripted
// notifications instead of a platform hook. Used in tests and on platforms
// without a hook implementation.
type SimulatedSource struct {
	mu       sync.Mutex
	pipeline *pipeline
	running  bool
}

// NewSimulated creates a simulated capture source with a US-layout resolver.
func NewSimulated() *SimulatedSource {
	return &SimulatedSource{pipeline: newPipeline(NewLayoutResolver(), Config{})}
}

// Start begins accepting simulated notifications.
func (s *SimulatedSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	return nil
}

// Stop closes the event channel.
func (s *SimulatedSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.pipeline.events)
	return nil
}

// Events returns the semantic event channel.
func (s *SimulatedSource) Events() <-chan Event {
	return s.pipeline.events
}

// Available always reports true for the simulated source.
func (s *SimulatedSource) Available() (bool, string) {
	return true, "simulated capture source (for testing)"
}

// Press injects a raw key-down notification.
func (s *SimulatedSource) Press(k RawKey) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		s.pipeline.keyDown(k)
	}
}

// Release injects a raw key-up notification.
func (s *SimulatedSource) Release(vk uint32) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		s.pipeline.keyUp(RawKey{VK: vk})
	}
}

// Tap injects a key-down/key-up pair spaced outside the dedup window.
func (s *SimulatedSource) Tap(vk, scan uint32, at time.Time) {
	s.Press(RawKey{VK: vk, Scan: scan, When: at})
	s.Release(vk)
}

// Dropped returns the number of events lost to a full channel.
func (s *SimulatedSource) Dropped() uint64 {
	return s.pipeline.Dropped()
}
