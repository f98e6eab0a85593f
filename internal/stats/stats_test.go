package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, time.Time) {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	day := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	s.SetClock(func() time.Time { return day })
	return s, day
}

func TestStore_CountersAccumulate(t *testing.T) {
	s, day := openTestStore(t)

	s.AddChars(5)
	s.AddChars(3)
	s.AddEnter()
	s.AddBackspace()
	s.AddPaste(12)
	s.AddSegment()

	// Pending counters are visible before any flush.
	d, err := s.Day(day)
	require.NoError(t, err)
	assert.EqualValues(t, 8, d.Chars)
	assert.EqualValues(t, 1, d.Enters)
	assert.EqualValues(t, 1, d.Backspaces)
	assert.EqualValues(t, 1, d.Pastes)
	assert.EqualValues(t, 12, d.PasteChars)
	assert.EqualValues(t, 1, d.Segments)
}

func TestStore_FlushPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	day := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)

	s, err := Open(path)
	require.NoError(t, err)
	s.SetClock(func() time.Time { return day })

	s.AddChars(10)
	s.AddPaste(4)
	require.NoError(t, s.Flush())
	require.NoError(t, s.Close())

	// Reopen and confirm persistence.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	d, err := s2.Day(day)
	require.NoError(t, err)
	assert.EqualValues(t, 10, d.Chars)
	assert.EqualValues(t, 1, d.Pastes)
	assert.EqualValues(t, 4, d.PasteChars)
}

func TestStore_FlushMergesAcrossRuns(t *testing.T) {
	s, day := openTestStore(t)

	s.AddChars(2)
	require.NoError(t, s.Flush())
	s.AddChars(3)
	require.NoError(t, s.Flush())

	d, err := s.Day(day)
	require.NoError(t, err)
	assert.EqualValues(t, 5, d.Chars)
}

func TestStore_DayRollover(t *testing.T) {
	s, day := openTestStore(t)

	s.AddChars(1)
	next := day.Add(24 * time.Hour)
	s.SetClock(func() time.Time { return next })
	s.AddChars(7)
	require.NoError(t, s.Flush())

	d1, err := s.Day(day)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d1.Chars)

	d2, err := s.Day(next)
	require.NoError(t, err)
	assert.EqualValues(t, 7, d2.Chars)
}

func TestStore_Recent(t *testing.T) {
	s, day := openTestStore(t)

	for i := 0; i < 3; i++ {
		d := day.Add(time.Duration(i) * 24 * time.Hour)
		s.SetClock(func() time.Time { return d })
		s.AddChars(int64(i + 1))
	}
	require.NoError(t, s.Flush())

	recent, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2026-09-01", recent[0].Day)
	assert.Equal(t, "2026-08-31", recent[1].Day)
}

func TestStore_EmptyDay(t *testing.T) {
	s, day := openTestStore(t)

	d, err := s.Day(day)
	require.NoError(t, err)
	assert.EqualValues(t, 0, d.Chars)
	assert.EqualValues(t, 0, d.Pastes)
}
