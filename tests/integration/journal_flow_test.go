//go:build integration

package integration

import (
	"strings"
	"testing"
	"time"

	"github.com/NatureBlueee/EchoType/internal/keyboard"
)

// TestJournalFlow drives the full typing journal workflow:
// 1. Type text through the capture pipeline into today's log file
// 2. Paste clipboard content
// 3. Pause and resume over the IPC socket
// 4. Rotate to a new segment over the IPC socket
// 5. Read daily counters over the IPC socket
// 6. Stop the daemon with a quit message
func TestJournalFlow(t *testing.T) {
	env := NewTestEnv(t)

	t.Run("typing_reaches_journal", func(t *testing.T) {
		env.TypeString("hello")
		content := env.WaitForJournal(0, "hello")

		AssertContains(t, content, "EchoType 日志", "fresh file should carry the header")
		AssertContains(t, content, "日期：", "header should carry the date line")
		AssertContains(t, content, "] hello", "typed text should follow a timestamp")
	})

	t.Run("enter_starts_new_line", func(t *testing.T) {
		env.Tap(keyboard.VKReturn)
		env.TypeString("world")
		content := env.WaitForJournal(0, "world")
		AssertTrue(t, strings.Contains(content, "hello\n"), "line break should follow the first line")
	})

	t.Run("paste_records_clipboard", func(t *testing.T) {
		env.Clip.Set("pasted text")
		env.Source.Press(keyboard.RawKey{VK: keyboard.VKControl, Scan: 29, When: env.tick()})
		env.Source.Tap(keyboard.VKV, keyboard.VKV, env.tick())
		env.Source.Release(keyboard.VKControl)

		content := env.WaitForJournal(0, "[粘贴] pasted text")
		AssertContains(t, content, "[粘贴]", "paste entry should be tagged")
	})

	t.Run("pause_over_ipc", func(t *testing.T) {
		paused, err := env.Client.Pause()
		AssertNoError(t, err, "pause request")
		AssertTrue(t, paused, "daemon should report paused")

		env.WaitForJournal(0, "--- 暂停记录 ---")
		before := env.ReadJournal(0)

		env.TypeString("ignored")
		env.Settle()
		AssertEqual(t, before, env.ReadJournal(0), "typing while paused should not reach the journal")

		paused, err = env.Client.Resume()
		AssertNoError(t, err, "resume request")
		AssertTrue(t, !paused, "daemon should report resumed")
		env.WaitForJournal(0, "--- 恢复记录 ---")
	})

	t.Run("pause_notifications", func(t *testing.T) {
		entries := env.Notifier.Entries()
		AssertTrue(t, len(entries) >= 2, "pause and resume should notify")
	})

	t.Run("status_over_ipc", func(t *testing.T) {
		st, err := env.Client.Status()
		AssertNoError(t, err, "status request")
		AssertEqual(t, "integration-test", st.Version, "status version")
		AssertTrue(t, st.CaptureActive, "capture should be active")
		AssertTrue(t, !st.Paused, "daemon should not be paused")
		AssertEqual(t, env.JournalDir, st.JournalDir, "status journal dir")
	})

	t.Run("new_segment_over_ipc", func(t *testing.T) {
		resp, err := env.Client.NewSegment()
		AssertNoError(t, err, "new segment request")
		AssertEqual(t, uint32(1), resp.Segment, "segment number after rotation")

		env.TypeString("fresh")
		content := env.WaitForJournal(1, "fresh")
		AssertContains(t, content, "EchoType 日志", "new segment should carry its own header")
	})

	t.Run("stats_over_ipc", func(t *testing.T) {
		resp, err := env.Client.Stats(7)
		AssertNoError(t, err, "stats request")
		AssertTrue(t, len(resp.Days) >= 1, "today should have counters")

		today := resp.Days[0]
		AssertTrue(t, today.Chars > 0, "typed characters should be counted")
		AssertEqual(t, int64(1), today.Enters, "one line break was typed")
		AssertEqual(t, int64(1), today.Pastes, "one paste was recorded")
		AssertEqual(t, int64(1), today.Segments, "one segment rotation")
	})

	t.Run("quit_over_ipc", func(t *testing.T) {
		AssertNoError(t, env.Client.Quit(), "quit request")
		select {
		case err := <-env.runErr:
			AssertNoError(t, err, "daemon run loop")
		case <-time.After(5 * time.Second):
			t.Fatal("daemon did not exit after quit")
		}
	})
}

// TestPauseShortcut toggles recording with Ctrl+Shift+P instead of IPC.
func TestPauseShortcut(t *testing.T) {
	env := NewTestEnv(t)

	env.TypeString("abc")
	env.WaitForJournal(0, "abc")

	env.TapWithCtrlShift(keyboard.VKP)
	env.WaitForJournal(0, "--- 暂停记录 ---")

	before := env.ReadJournal(0)
	env.TypeString("hidden")
	env.Settle()
	AssertEqual(t, before, env.ReadJournal(0), "typing while paused should not be journaled")

	env.TapWithCtrlShift(keyboard.VKP)
	env.WaitForJournal(0, "--- 恢复记录 ---")

	env.TypeString("visible")
	env.WaitForJournal(0, "visible")
}

// TestManualSaveShortcut records the clipboard with Ctrl+Shift+S.
func TestManualSaveShortcut(t *testing.T) {
	env := NewTestEnv(t)

	env.Clip.Set("saved note")
	env.TapWithCtrlShift(keyboard.VKS)
	content := env.WaitForJournal(0, "[手动保存] saved note")
	AssertContains(t, content, "[手动保存]", "manual save entry should be tagged")
}

// TestSegmentShortcut rotates the log file with Ctrl+Shift+N.
func TestSegmentShortcut(t *testing.T) {
	env := NewTestEnv(t)

	env.TypeString("one")
	env.WaitForJournal(0, "one")

	env.TapWithCtrlShift(keyboard.VKN)
	env.TypeString("two")

	content := env.WaitForJournal(1, "two")
	AssertContains(t, content, "EchoType 日志", "rotated file should carry a header")
	AssertTrue(t, !strings.Contains(env.ReadJournal(0), "two"), "old segment should not receive new text")
}
