// Package journal turns the stream of semantic keyboard events into
// human-readable, timestamped, date- and segment-partitioned log files.
//
// Durability rules:
//   - files are opened append-only and never rewritten or truncated
//   - every write is flushed immediately; data survives a crash at any point
//   - a date change (checked lazily on each write) rotates to a new file and
//     resets the segment counter
//   - an explicit new-segment command rotates within the same day
//
// A file that is empty at open time receives a run header; resuming into a
// non-empty file never rewrites its content.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"

	// continuationIndent aligns continuation lines under the
	// "[HH:MM:SS]" prefix.
	continuationIndent = "          "

	// DefaultIdleTimeout is the input inactivity span after which the next
	// write gets a fresh timestamp even mid-line.
	DefaultIdleTimeout = 30 * time.Second
)

// Tags and markers written into the journal. The format is shared with the
// original EchoType journals, so resumed files stay consistent.
const (
	tagPaste      = "粘贴"
	tagManualSave = "手动保存"
	markerPaused  = "--- 暂停记录 ---"
	markerResumed = "--- 恢复记录 ---"

	// BackspaceGlyph is the placeholder written for a Backspace press.
	BackspaceGlyph = "⌫"
)

// Config configures a Writer.
type Config struct {
	// Dir is the directory holding the journal files.
	Dir string

	// IdleTimeout overrides DefaultIdleTimeout when positive.
	IdleTimeout time.Duration

	// SyncOnWrite additionally fsyncs after every flush.
	SyncOnWrite bool

	// Clock overrides the wall clock. Nil means time.Now.
	Clock func() time.Time
}

// Writer owns exactly one open journal file at a time. It is not safe for
// concurrent use: the daemon loop is its sole owner, which also keeps all
// file I/O off the capture path.
type Writer struct {
	cfg   Config
	clock func() time.Time
	idle  time.Duration

	file *os.File
	buf  *bufio.Writer

	currentDate   string // YYYY-MM-DD of the open file, "" before first write
	segment       uint32
	lastWrite     time.Time
	lineEmpty     bool
	paused        bool
	headerWritten bool
}

// NewWriter creates a Writer and ensures the journal directory exists. No
// file is opened until the first write.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("journal: directory not set")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	return &Writer{
		cfg:       cfg,
		clock:     clock,
		idle:      idle,
		lineEmpty: true,
	}, nil
}

// Filename returns the journal file name for a date and segment number.
// Segment 0 has no suffix; later segments carry a two-digit suffix.
func Filename(date time.Time, segment uint32) string {
	if segment == 0 {
		return date.Format(dateLayout) + ".log"
	}
	return fmt.Sprintf("%s_%02d.log", date.Format(dateLayout), segment)
}

// Dir returns the journal directory.
func (w *Writer) Dir() string { return w.cfg.Dir }

// Segment returns the current segment number.
func (w *Writer) Segment() uint32 { return w.segment }

// CurrentPath returns the path of the active journal file, or "" when no
// file has been opened yet.
func (w *Writer) CurrentPath() string {
	if w.currentDate == "" {
		return ""
	}
	name := w.currentDate + ".log"
	if w.segment > 0 {
		name = fmt.Sprintf("%s_%02d.log", w.currentDate, w.segment)
	}
	return filepath.Join(w.cfg.Dir, name)
}

// Paused reports whether the journal is paused.
func (w *Writer) Paused() bool { return w.paused }

// ensureFile opens the correct file for "today". Date changes are detected
// here, lazily, and reset the segment counter.
func (w *Writer) ensureFile() error {
	today := w.clock().Format(dateLayout)

	if w.currentDate != today {
		w.closeFile()
		w.currentDate = today
		w.segment = 0
		w.headerWritten = false
		return w.openFile()
	}

	if w.file == nil {
		return w.openFile()
	}
	return nil
}

// openFile opens the (date, segment) file in append-only mode, writing the
// run header iff the file is empty.
func (w *Writer) openFile() error {
	path := w.CurrentPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	hasContent := false
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		hasContent = true
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open journal file: %w", err)
	}

	w.file = f
	w.buf = bufio.NewWriter(f)
	w.lineEmpty = true

	if hasContent {
		// Resumed session: the header already exists, never write another.
		w.headerWritten = true
		return nil
	}
	if !w.headerWritten {
		if err := w.writeHeader(); err != nil {
			return err
		}
		w.headerWritten = true
	}
	return nil
}

func (w *Writer) writeHeader() error {
	now := w.clock()
	banner := strings.Repeat("=", 18)
	fmt.Fprintf(w.buf, "%s EchoType 日志 %s\n", banner, banner)
	fmt.Fprintf(w.buf, "日期：%s\n", now.Format(dateLayout))
	fmt.Fprintf(w.buf, "创建时间：%s\n", now.Format(timeLayout))
	fmt.Fprintln(w.buf, strings.Repeat("=", 50))
	fmt.Fprintln(w.buf)
	return w.flush()
}

// closeFile flushes and releases the current file, ignoring errors: it only
// runs on rotation paths where the next open reports anything persistent.
func (w *Writer) closeFile() {
	if w.buf != nil {
		w.buf.Flush()
	}
	if w.file != nil {
		if w.cfg.SyncOnWrite {
			w.file.Sync()
		}
		w.file.Close()
	}
	w.file = nil
	w.buf = nil
}

// flush pushes buffered bytes to the OS, and to stable storage when
// SyncOnWrite is set.
func (w *Writer) flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	if w.cfg.SyncOnWrite {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("sync journal: %w", err)
		}
	}
	return nil
}

// needTimestamp reports whether the next text write must start a fresh
// timestamp: either the line is empty, or the idle timeout elapsed.
func (w *Writer) needTimestamp() bool {
	if w.lineEmpty {
		return true
	}
	if !w.lastWrite.IsZero() && w.clock().Sub(w.lastWrite) > w.idle {
		return true
	}
	return false
}

// WriteText appends text to the journal. A fresh "[HH:MM:SS] " prefix is
// inserted when the line is empty or after idle timeout; otherwise the text
// continues the current line verbatim.
func (w *Writer) WriteText(text string) error {
	if w.paused {
		return nil
	}
	if err := w.ensureFile(); err != nil {
		return err
	}

	if w.needTimestamp() {
		if !w.lineEmpty {
			fmt.Fprintln(w.buf)
		}
		fmt.Fprintf(w.buf, "[%s] ", w.clock().Format(timeLayout))
		w.lineEmpty = false
	}

	if _, err := w.buf.WriteString(text); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	if err := w.flush(); err != nil {
		return err
	}

	w.lastWrite = w.clock()
	return nil
}

// Enter writes a line break and marks the line empty, forcing the next text
// write to start with a fresh timestamp.
func (w *Writer) Enter() error {
	if w.paused {
		return nil
	}
	if err := w.ensureFile(); err != nil {
		return err
	}

	fmt.Fprintln(w.buf)
	if err := w.flush(); err != nil {
		return err
	}

	w.lineEmpty = true
	w.lastWrite = w.clock()
	return nil
}

// CtrlEnter writes a line break plus continuation indentation. The line is
// deliberately not marked empty, so the following text continues the same
// timestamp context instead of opening a new one.
func (w *Writer) CtrlEnter() error {
	if w.paused {
		return nil
	}
	if err := w.ensureFile(); err != nil {
		return err
	}

	fmt.Fprintln(w.buf)
	w.buf.WriteString(continuationIndent)
	if err := w.flush(); err != nil {
		return err
	}

	w.lastWrite = w.clock()
	return nil
}

// WritePaste writes clipboard content pasted with Ctrl+V as one fully
// timestamped, tagged line.
func (w *Writer) WritePaste(content string) error {
	return w.writeTagged(tagPaste, content)
}

// WriteManualSave writes a manual clipboard snapshot (Ctrl+Shift+S) as one
// fully timestamped, tagged line.
func (w *Writer) WriteManualSave(content string) error {
	return w.writeTagged(tagManualSave, content)
}

// writeTagged always starts on a fresh line and leaves the line empty.
// Content stays on a single physical line: embedded line breaks are
// replaced with a visible return glyph.
func (w *Writer) writeTagged(tag, content string) error {
	if w.paused {
		return nil
	}
	if err := w.ensureFile(); err != nil {
		return err
	}

	if !w.lineEmpty {
		fmt.Fprintln(w.buf)
	}
	fmt.Fprintf(w.buf, "[%s] [%s] %s\n", w.clock().Format(timeLayout), tag, singleLine(content))
	if err := w.flush(); err != nil {
		return err
	}

	w.lineEmpty = true
	w.lastWrite = w.clock()
	return nil
}

// singleLine folds any line breaks in pasted content into a visible glyph.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "⏎")
	s = strings.ReplaceAll(s, "\n", "⏎")
	s = strings.ReplaceAll(s, "\r", "⏎")
	return s
}

// NewSegment flushes and closes the current file, then opens the next
// segment file for the current date. Works while paused.
func (w *Writer) NewSegment() error {
	if err := w.ensureFile(); err != nil {
		return err
	}

	w.closeFile()
	w.segment++
	w.headerWritten = false
	return w.openFile()
}

// Pause stops journaling and writes a pause marker. Already paused is a
// no-op.
func (w *Writer) Pause() error {
	if w.paused {
		return nil
	}
	w.paused = true

	if err := w.ensureFile(); err != nil {
		return err
	}
	if !w.lineEmpty {
		fmt.Fprintln(w.buf)
	}
	fmt.Fprintf(w.buf, "[%s] %s\n", w.clock().Format(timeLayout), markerPaused)
	if err := w.flush(); err != nil {
		return err
	}
	w.lineEmpty = true
	return nil
}

// Resume restarts journaling and writes a resume marker. Not paused is a
// no-op.
func (w *Writer) Resume() error {
	if !w.paused {
		return nil
	}
	w.paused = false

	if err := w.ensureFile(); err != nil {
		return err
	}
	fmt.Fprintf(w.buf, "[%s] %s\n", w.clock().Format(timeLayout), markerResumed)
	if err := w.flush(); err != nil {
		return err
	}
	w.lineEmpty = true
	return nil
}

// TogglePause flips the pause state and returns the new state.
func (w *Writer) TogglePause() (bool, error) {
	if w.paused {
		return false, w.Resume()
	}
	if err := w.Pause(); err != nil {
		return w.paused, err
	}
	return true, nil
}

// SetPaused moves to the requested state, writing the transition marker
// when the state actually changes.
func (w *Writer) SetPaused(paused bool) error {
	if paused == w.paused {
		return nil
	}
	if paused {
		return w.Pause()
	}
	return w.Resume()
}

// Close flushes buffered bytes and releases the file. The Writer may be
// reused afterwards; the next write reopens the appropriate file.
func (w *Writer) Close() error {
	var err error
	if w.buf != nil {
		err = w.buf.Flush()
	}
	if w.file != nil {
		if serr := w.file.Sync(); err == nil {
			err = serr
		}
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	w.file = nil
	w.buf = nil
	return err
}
