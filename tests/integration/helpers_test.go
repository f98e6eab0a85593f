//go:build integration

// Package integration provides end-to-end integration tests for echotyped.
//
// These tests drive the full capture pipeline, journal writer, stats store
// and IPC socket together, the way the daemon runs in production.
//
// Run with: go test -tags=integration ./tests/integration/...
package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NatureBlueee/EchoType/internal/clipboard"
	"github.com/NatureBlueee/EchoType/internal/config"
	"github.com/NatureBlueee/EchoType/internal/daemon"
	"github.com/NatureBlueee/EchoType/internal/ipc"
	"github.com/NatureBlueee/EchoType/internal/journal"
	"github.com/NatureBlueee/EchoType/internal/keyboard"
	"github.com/NatureBlueee/EchoType/internal/notify"
	"github.com/NatureBlueee/EchoType/internal/stats"
)

// TestEnv holds a running daemon with a simulated capture source, a real
// IPC server on a temp socket, and a connected client.
type TestEnv struct {
	T          *testing.T
	JournalDir string

	Config   *config.Config
	Source   *keyboard.SimulatedSource
	Clip     *clipboard.Memory
	Notifier *notify.Recorder
	Stats    *stats.Store
	Daemon   *daemon.Daemon
	Server   *ipc.Server
	Client   *ipc.Client

	Ctx    context.Context
	Cancel context.CancelFunc

	now    time.Time
	runErr chan error
	exited chan struct{}
}

// NewTestEnv builds and starts the full daemon stack in a temp directory.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tempDir := t.TempDir()
	journalDir := filepath.Join(tempDir, "logs")

	cfg := config.DefaultConfig()
	cfg.Journal.Dir = journalDir
	cfg.Stats.Path = filepath.Join(tempDir, "stats.db")
	cfg.Stats.FlushIntervalSec = 1
	cfg.IPC.SocketPath = filepath.Join(tempDir, "echotyped.sock")
	cfg.Notify.Enabled = true

	st, err := stats.Open(cfg.Stats.Path)
	if err != nil {
		t.Fatalf("open stats store: %v", err)
	}

	source := keyboard.NewSimulated()
	clip := clipboard.NewMemory()
	rec := notify.NewRecorder()

	d, err := daemon.New(daemon.Options{
		Config:    cfg,
		Source:    source,
		Clipboard: clip,
		Stats:     st,
		Notifier:  rec,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Version:   "integration-test",
	})
	if err != nil {
		t.Fatalf("create daemon: %v", err)
	}

	server := ipc.NewServer(ipc.DefaultServerConfig(cfg.IPC.SocketPath), d.Handler())
	if err := server.Start(); err != nil {
		t.Fatalf("start ipc server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	runErr := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		runErr <- d.Run(ctx)
		close(exited)
	}()

	client := ipc.NewClient(ipc.DefaultClientConfig(cfg.IPC.SocketPath))
	if err := client.Connect(); err != nil {
		t.Fatalf("connect ipc client: %v", err)
	}

	// Wait until the Run loop is serving commands: a Status reply proves
	// capture has started, so injected keys are no longer dropped.
	sctx, scancel := context.WithTimeout(ctx, 3*time.Second)
	defer scancel()
	if _, err := d.Status(sctx); err != nil {
		t.Fatalf("daemon did not start: %v", err)
	}

	env := &TestEnv{
		T:          t,
		JournalDir: journalDir,
		Config:     cfg,
		Source:     source,
		Clip:       clip,
		Notifier:   rec,
		Stats:      st,
		Daemon:     d,
		Server:     server,
		Client:     client,
		Ctx:        ctx,
		Cancel:     cancel,
		now:        time.Now(),
		runErr:     runErr,
		exited:     exited,
	}

	t.Cleanup(env.Cleanup)
	return env
}

// Cleanup tears the stack down in reverse order. Safe to call twice.
func (env *TestEnv) Cleanup() {
	env.Client.Close()
	env.Cancel()
	select {
	case <-env.exited:
	case <-time.After(5 * time.Second):
		env.T.Error("daemon did not stop within 5s")
	}
	env.Server.Stop()
	env.Stats.Close()
}

// tick advances the scripted clock past the key dedup window.
func (env *TestEnv) tick() time.Time {
	env.now = env.now.Add(50 * time.Millisecond)
	return env.now
}

// Tap injects one key press and release.
func (env *TestEnv) Tap(vk uint32) {
	env.Source.Tap(vk, vk, env.tick())
}

// TypeString injects the lowercase letters of s one key at a time.
func (env *TestEnv) TypeString(s string) {
	env.T.Helper()
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			env.Tap(keyboard.VKA + uint32(r-'a'))
		case r == ' ':
			env.Tap(keyboard.VKSpace)
		default:
			env.T.Fatalf("TypeString supports lowercase letters and spaces, got %q", r)
		}
	}
}

// TapWithCtrlShift injects vk while Ctrl and Shift are held.
func (env *TestEnv) TapWithCtrlShift(vk uint32) {
	at := env.tick()
	env.Source.Press(keyboard.RawKey{VK: keyboard.VKControl, Scan: 29, When: at})
	env.Source.Press(keyboard.RawKey{VK: keyboard.VKShift, Scan: 42, When: at})
	env.Source.Tap(vk, vk, env.tick())
	env.Source.Release(keyboard.VKShift)
	env.Source.Release(keyboard.VKControl)
}

// JournalPath returns the path of the journal file for today and segment.
func (env *TestEnv) JournalPath(segment uint32) string {
	name := journal.Filename(time.Now(), segment)
	return filepath.Join(env.JournalDir, name)
}

// ReadJournal returns the journal file content, or "" if the file does
// not exist yet.
func (env *TestEnv) ReadJournal(segment uint32) string {
	data, err := os.ReadFile(env.JournalPath(segment))
	if err != nil {
		return ""
	}
	return string(data)
}

// WaitForJournal polls until the journal for segment contains want.
func (env *TestEnv) WaitForJournal(segment uint32, want string) string {
	env.T.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		content := env.ReadJournal(segment)
		if strings.Contains(content, want) {
			return content
		}
		time.Sleep(10 * time.Millisecond)
	}
	env.T.Fatalf("journal segment %d never contained %q; got:\n%s",
		segment, want, env.ReadJournal(segment))
	return ""
}

// Settle gives the event loop time to drain injected notifications.
func (env *TestEnv) Settle() {
	time.Sleep(150 * time.Millisecond)
}

// Assertion helpers

func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

func AssertEqual[T comparable](t *testing.T, expected, actual T, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Fatalf("%s", msg)
	}
}

func AssertContains(t *testing.T, haystack, needle, msg string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("%s: %q not found in:\n%s", msg, needle, haystack)
	}
}
