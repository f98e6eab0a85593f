// Package stats keeps daily typing counters in a small SQLite database.
// Counters hold only numbers, never typed content.
package stats

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily (
    day         TEXT PRIMARY KEY,
    chars       INTEGER NOT NULL DEFAULT 0,
    enters      INTEGER NOT NULL DEFAULT 0,
    backspaces  INTEGER NOT NULL DEFAULT 0,
    pastes      INTEGER NOT NULL DEFAULT 0,
    paste_chars INTEGER NOT NULL DEFAULT 0,
    segments    INTEGER NOT NULL DEFAULT 0,
    updated_at  INTEGER NOT NULL DEFAULT 0
);
`

const dayLayout = "2006-01-02"

// Daily holds the counters for one calendar day.
type Daily struct {
	Day        string `json:"day"`
	Chars      int64  `json:"chars"`
	Enters     int64  `json:"enters"`
	Backspaces int64  `json:"backspaces"`
	Pastes     int64  `json:"pastes"`
	PasteChars int64  `json:"paste_chars"`
	Segments   int64  `json:"segments"`
}

// Store accumulates counters in memory and flushes them to SQLite. All
// methods are safe for concurrent use.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	pending map[string]*Daily
	clock   func() time.Time
}

// Open opens or creates the statistics database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open stats database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply stats schema: %w", err)
	}

	return &Store{
		db:      db,
		pending: make(map[string]*Daily),
		clock:   time.Now,
	}, nil
}

// SetClock overrides the wall clock, for tests.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *Store) today() *Daily {
	day := s.clock().Format(dayLayout)
	d, ok := s.pending[day]
	if !ok {
		d = &Daily{Day: day}
		s.pending[day] = d
	}
	return d
}

// AddChars records typed characters for today.
func (s *Store) AddChars(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.today().Chars += n
}

// AddEnter records a line break for today.
func (s *Store) AddEnter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.today().Enters++
}

// AddBackspace records a backspace for today.
func (s *Store) AddBackspace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.today().Backspaces++
}

// AddPaste records one paste of n characters for today.
func (s *Store) AddPaste(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.today()
	d.Pastes++
	d.PasteChars += n
}

// AddSegment records a segment rotation for today.
func (s *Store) AddSegment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.today().Segments++
}

// Flush merges pending counters into the database. Call it periodically
// and on shutdown.
func (s *Store) Flush() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]*Daily)
	now := s.clock().Unix()
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		s.restore(pending)
		return fmt.Errorf("begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily (day, chars, enters, backspaces, pastes, paste_chars, segments, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			chars       = chars + excluded.chars,
			enters      = enters + excluded.enters,
			backspaces  = backspaces + excluded.backspaces,
			pastes      = pastes + excluded.pastes,
			paste_chars = paste_chars + excluded.paste_chars,
			segments    = segments + excluded.segments,
			updated_at  = excluded.updated_at`)
	if err != nil {
		s.restore(pending)
		return fmt.Errorf("prepare stats upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range pending {
		if _, err := stmt.Exec(d.Day, d.Chars, d.Enters, d.Backspaces, d.Pastes, d.PasteChars, d.Segments, now); err != nil {
			s.restore(pending)
			return fmt.Errorf("upsert daily stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.restore(pending)
		return fmt.Errorf("commit stats: %w", err)
	}
	return nil
}

// restore puts failed pending counters back so they are retried on the
// next flush.
func (s *Store) restore(pending map[string]*Daily) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for day, d := range pending {
		cur, ok := s.pending[day]
		if !ok {
			s.pending[day] = d
			continue
		}
		cur.Chars += d.Chars
		cur.Enters += d.Enters
		cur.Backspaces += d.Backspaces
		cur.Pastes += d.Pastes
		cur.PasteChars += d.PasteChars
		cur.Segments += d.Segments
	}
}

// Day returns the persisted counters for one calendar day, including any
// pending in-memory increments.
func (s *Store) Day(day time.Time) (*Daily, error) {
	key := day.Format(dayLayout)

	d := &Daily{Day: key}
	err := s.db.QueryRow(`
		SELECT chars, enters, backspaces, pastes, paste_chars, segments
		FROM daily WHERE day = ?`, key).
		Scan(&d.Chars, &d.Enters, &d.Backspaces, &d.Pastes, &d.PasteChars, &d.Segments)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}

	s.mu.Lock()
	if p, ok := s.pending[key]; ok {
		d.Chars += p.Chars
		d.Enters += p.Enters
		d.Backspaces += p.Backspaces
		d.Pastes += p.Pastes
		d.PasteChars += p.PasteChars
		d.Segments += p.Segments
	}
	s.mu.Unlock()

	return d, nil
}

// Recent returns persisted counters for the most recent days, newest
// first.
func (s *Store) Recent(limit int) ([]Daily, error) {
	if limit <= 0 {
		limit = 7
	}
	rows, err := s.db.Query(`
		SELECT day, chars, enters, backspaces, pastes, paste_chars, segments
		FROM daily ORDER BY day DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent stats: %w", err)
	}
	defer rows.Close()

	var out []Daily
	for rows.Next() {
		var d Daily
		if err := rows.Scan(&d.Day, &d.Chars, &d.Enters, &d.Backspaces, &d.Pastes, &d.PasteChars, &d.Segments); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close flushes pending counters and closes the database.
func (s *Store) Close() error {
	ferr := s.Flush()
	cerr := s.db.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}
