// Package daemon owns the echotyped runtime: it drains the capture
// pipeline into the journal, keeps the daily counters, and serves control
// commands from the IPC socket.
//
// All journal and stats mutation happens on the single Run goroutine.
// Control commands are marshalled onto that goroutine through a command
// channel, so the journal writer needs no locking.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NatureBlueee/EchoType/internal/autostart"
	"github.com/NatureBlueee/EchoType/internal/clipboard"
	"github.com/NatureBlueee/EchoType/internal/config"
	"github.com/NatureBlueee/EchoType/internal/journal"
	"github.com/NatureBlueee/EchoType/internal/keyboard"
	"github.com/NatureBlueee/EchoType/internal/logging"
	"github.com/NatureBlueee/EchoType/internal/notify"
	"github.com/NatureBlueee/EchoType/internal/stats"
)

// Options configures a Daemon. Source and Clipboard are required; Stats
// and Notifier may be nil.
type Options struct {
	Config    *config.Config
	Source    keyboard.Source
	Clipboard clipboard.Accessor
	Stats     *stats.Store
	Notifier  notify.Notifier
	Autostart autostart.Manager
	Logger    *slog.Logger
	Version   string
}

// Daemon is the echotyped runtime.
type Daemon struct {
	cfg       *config.Config
	source    keyboard.Source
	clip      clipboard.Accessor
	stats     *stats.Store
	notifier  notify.Notifier
	auto      autostart.Manager
	log       *slog.Logger
	version   string
	startedAt time.Time

	writer   *journal.Writer
	commands chan command

	captureActive bool
	captureNote   string
}

// command is a control request executed on the Run goroutine.
type command struct {
	kind  commandKind
	args  any
	reply chan commandResult
}

type commandKind int

const (
	cmdStatus commandKind = iota
	cmdPause
	cmdResume
	cmdTogglePause
	cmdNewSegment
	cmdStats
	cmdQuit
)

type commandResult struct {
	value any
	err   error
}

// Status is a snapshot of the daemon state.
type Status struct {
	Version       string
	StartedAt     time.Time
	Paused        bool
	JournalDir    string
	JournalFile   string
	Segment       uint32
	CaptureActive bool
	CaptureNote   string
	DroppedEvents uint64
}

// SegmentInfo describes the file opened by a segment rotation.
type SegmentInfo struct {
	Segment uint32
	Path    string
}

// New creates a Daemon and its journal writer.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("daemon: config is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("daemon: capture source is required")
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.New()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default().WithComponent("daemon").Logger
	}

	writer, err := journal.NewWriter(journal.Config{
		Dir:         opts.Config.Journal.Dir,
		IdleTimeout: time.Duration(opts.Config.Journal.IdleTimeoutSec) * time.Second,
		SyncOnWrite: opts.Config.Journal.SyncOnWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("create journal writer: %w", err)
	}

	d := &Daemon{
		cfg:       opts.Config,
		source:    opts.Source,
		clip:      opts.Clipboard,
		stats:     opts.Stats,
		notifier:  opts.Notifier,
		auto:      opts.Autostart,
		log:       opts.Logger,
		version:   opts.Version,
		startedAt: time.Now(),
		writer:    writer,
		commands:  make(chan command, 16),
	}

	if opts.Config.Journal.StartPaused {
		d.writer.SetPaused(true)
	}
	return d, nil
}

// Run starts capture and processes events and commands until the context
// is cancelled or a quit command arrives.
func (d *Daemon) Run(ctx context.Context) error {
	if avail, note := d.source.Available(); !avail {
		d.captureNote = note
		d.log.Warn("keyboard capture unavailable", "reason", note)
	}

	if err := d.source.Start(ctx); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	d.captureActive = true
	d.log.Info("capture started",
		"journal_dir", d.cfg.Journal.Dir,
		"paused", d.writer.Paused())

	flushInterval := time.Duration(d.cfg.Stats.FlushIntervalSec) * time.Second
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	defer d.shutdown()

	events := d.source.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				// The capture source died. Keep serving IPC so the
				// operator can inspect state and quit cleanly.
				d.captureActive = false
				events = nil
				d.log.Warn("capture source closed")
				continue
			}
			d.handleEvent(ev)

		case cmd := <-d.commands:
			if quit := d.handleCommand(cmd); quit {
				return nil
			}

		case <-ticker.C:
			d.flushStats()
		}
	}
}

func (d *Daemon) shutdown() {
	d.source.Stop()
	if err := d.writer.Close(); err != nil {
		d.log.Error("close journal", "error", err)
	}
	d.flushStats()
	d.log.Info("daemon stopped")
}

// handleEvent applies one semantic keyboard event to the journal.
// Journal write failures are logged and dropped; the next event retries
// the file.
func (d *Daemon) handleEvent(ev keyboard.Event) {
	paused := d.writer.Paused()

	switch ev.Kind {
	case keyboard.KindCharacter:
		if err := d.writer.WriteText(string(ev.Rune)); err != nil {
			d.log.Error("write character", "error", err)
			return
		}
		if !paused {
			d.addChars(1)
		}

	case keyboard.KindEnter:
		if err := d.writer.Enter(); err != nil {
			d.log.Error("write line break", "error", err)
			return
		}
		if !paused && d.stats != nil {
			d.stats.AddEnter()
		}

	case keyboard.KindCtrlEnter:
		if err := d.writer.CtrlEnter(); err != nil {
			d.log.Error("write continuation", "error", err)
		}

	case keyboard.KindBackspace:
		if err := d.writer.WriteText(journal.BackspaceGlyph); err != nil {
			d.log.Error("write backspace", "error", err)
			return
		}
		if !paused && d.stats != nil {
			d.stats.AddBackspace()
		}

	case keyboard.KindPaste:
		d.recordClipboard(paused, false)

	case keyboard.KindManualSave:
		d.recordClipboard(paused, true)

	case keyboard.KindTogglePause:
		if _, err := d.togglePause(); err != nil {
			d.log.Error("toggle pause", "error", err)
		}

	case keyboard.KindNewSegment:
		if _, err := d.newSegment(); err != nil {
			d.log.Error("new segment", "error", err)
		}
	}
}

// recordClipboard reads the clipboard and writes it as a paste or manual
// save entry. Empty clipboard content is skipped.
func (d *Daemon) recordClipboard(paused, manual bool) {
	if paused {
		return
	}

	content, err := d.clip.GetText()
	if err != nil {
		d.log.Warn("read clipboard", "error", err)
		return
	}
	if content == "" {
		return
	}

	if manual {
		err = d.writer.WriteManualSave(content)
	} else {
		err = d.writer.WritePaste(content)
	}
	if err != nil {
		d.log.Error("write clipboard entry", "error", err)
		return
	}
	if d.stats != nil {
		d.stats.AddPaste(int64(len([]rune(content))))
	}
}

func (d *Daemon) addChars(n int64) {
	if d.stats != nil {
		d.stats.AddChars(n)
	}
}

func (d *Daemon) togglePause() (bool, error) {
	paused, err := d.writer.TogglePause()
	if err != nil {
		return paused, err
	}
	d.notifyPauseState(paused)
	d.log.Info("pause toggled", "paused", paused)
	return paused, nil
}

func (d *Daemon) setPaused(paused bool) (bool, error) {
	if paused == d.writer.Paused() {
		return paused, nil
	}
	if err := d.writer.SetPaused(paused); err != nil {
		return d.writer.Paused(), err
	}
	d.notifyPauseState(paused)
	d.log.Info("pause state changed", "paused", paused)
	return paused, nil
}

func (d *Daemon) notifyPauseState(paused bool) {
	if paused {
		d.notify("EchoType 已暂停", "记录已暂停")
	} else {
		d.notify("EchoType 已恢复", "记录已恢复")
	}
}

func (d *Daemon) newSegment() (SegmentInfo, error) {
	if err := d.writer.NewSegment(); err != nil {
		return SegmentInfo{}, err
	}
	if d.stats != nil {
		d.stats.AddSegment()
	}
	info := SegmentInfo{
		Segment: d.writer.Segment(),
		Path:    d.writer.CurrentPath(),
	}
	d.notify("EchoType 新片段", fmt.Sprintf("已切换到新日志：%s", info.Path))
	d.log.Info("segment rotated", "segment", info.Segment, "path", info.Path)
	return info, nil
}

func (d *Daemon) notify(summary, body string) {
	if !d.cfg.Notify.Enabled {
		return
	}
	if err := d.notifier.Notify(summary, body); err != nil {
		d.log.Debug("notification failed", "error", err)
	}
}

func (d *Daemon) flushStats() {
	if d.stats == nil {
		return
	}
	if err := d.stats.Flush(); err != nil {
		d.log.Error("flush stats", "error", err)
	}
}

func (d *Daemon) status() Status {
	var dropped uint64
	type dropCounter interface{ Dropped() uint64 }
	if dc, ok := d.source.(dropCounter); ok {
		dropped = dc.Dropped()
	}

	return Status{
		Version:       d.version,
		StartedAt:     d.startedAt,
		Paused:        d.writer.Paused(),
		JournalDir:    d.writer.Dir(),
		JournalFile:   d.writer.CurrentPath(),
		Segment:       d.writer.Segment(),
		CaptureActive: d.captureActive,
		CaptureNote:   d.captureNote,
		DroppedEvents: dropped,
	}
}

// handleCommand executes one control command on the Run goroutine.
// Returns true when the daemon should exit.
func (d *Daemon) handleCommand(cmd command) bool {
	switch cmd.kind {
	case cmdStatus:
		cmd.reply <- commandResult{value: d.status()}

	case cmdPause:
		paused, err := d.setPaused(true)
		cmd.reply <- commandResult{value: paused, err: err}

	case cmdResume:
		paused, err := d.setPaused(false)
		cmd.reply <- commandResult{value: paused, err: err}

	case cmdTogglePause:
		paused, err := d.togglePause()
		cmd.reply <- commandResult{value: paused, err: err}

	case cmdNewSegment:
		info, err := d.newSegment()
		cmd.reply <- commandResult{value: info, err: err}

	case cmdStats:
		days, _ := cmd.args.(int)
		cmd.reply <- d.statsResult(days)

	case cmdQuit:
		cmd.reply <- commandResult{}
		d.log.Info("quit requested")
		return true

	default:
		cmd.reply <- commandResult{err: fmt.Errorf("unknown command %d", cmd.kind)}
	}
	return false
}

func (d *Daemon) statsResult(days int) commandResult {
	if d.stats == nil {
		return commandResult{err: fmt.Errorf("statistics are disabled")}
	}
	// Flush first so today's pending counters are included.
	if err := d.stats.Flush(); err != nil {
		return commandResult{err: err}
	}
	recent, err := d.stats.Recent(days)
	if err != nil {
		return commandResult{err: err}
	}
	return commandResult{value: recent}
}

// send runs a command on the Run goroutine and waits for its result.
func (d *Daemon) send(ctx context.Context, kind commandKind, args any) (any, error) {
	cmd := command{kind: kind, args: args, reply: make(chan commandResult, 1)}

	select {
	case d.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Control operations, used by the IPC handler and tests.

// Status returns a snapshot of the daemon state.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	v, err := d.send(ctx, cmdStatus, nil)
	if err != nil {
		return Status{}, err
	}
	return v.(Status), nil
}

// Pause pauses journaling.
func (d *Daemon) Pause(ctx context.Context) (bool, error) {
	return d.pauseOp(ctx, cmdPause)
}

// Resume resumes journaling.
func (d *Daemon) Resume(ctx context.Context) (bool, error) {
	return d.pauseOp(ctx, cmdResume)
}

// TogglePause flips the pause state.
func (d *Daemon) TogglePause(ctx context.Context) (bool, error) {
	return d.pauseOp(ctx, cmdTogglePause)
}

func (d *Daemon) pauseOp(ctx context.Context, kind commandKind) (bool, error) {
	v, err := d.send(ctx, kind, nil)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// NewSegment rotates to a new journal segment.
func (d *Daemon) NewSegment(ctx context.Context) (SegmentInfo, error) {
	v, err := d.send(ctx, cmdNewSegment, nil)
	if err != nil {
		return SegmentInfo{}, err
	}
	return v.(SegmentInfo), nil
}

// RecentStats returns daily counters, newest first.
func (d *Daemon) RecentStats(ctx context.Context, days int) ([]stats.Daily, error) {
	v, err := d.send(ctx, cmdStats, days)
	if err != nil {
		return nil, err
	}
	return v.([]stats.Daily), nil
}

// Quit asks the Run loop to exit.
func (d *Daemon) Quit(ctx context.Context) error {
	_, err := d.send(ctx, cmdQuit, nil)
	return err
}

// JournalDir returns the journal directory.
func (d *Daemon) JournalDir() string {
	return d.cfg.Journal.Dir
}

// SetAutostart enables or disables launch-at-login and reports the
// resulting state. Safe to call from any goroutine: it touches only the
// autostart manager, never the journal.
func (d *Daemon) SetAutostart(enabled bool) (bool, error) {
	if d.auto == nil {
		return false, fmt.Errorf("autostart is not available")
	}

	var err error
	if enabled {
		err = d.auto.Enable()
	} else {
		err = d.auto.Disable()
	}
	if err != nil {
		current, _ := d.auto.Enabled()
		return current, err
	}
	d.log.Info("autostart changed", "enabled", enabled)
	return enabled, nil
}
