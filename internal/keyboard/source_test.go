package keyboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainEvents collects everything currently buffered on the channel.
func drainEvents(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestSimulatedSource_TypingFlow(t *testing.T) {
	s := NewSimulated()
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	base := time.Now()
	s.Tap(VKA+7, 35, base)                         // h
	s.Tap(VKA+8, 23, base.Add(50*time.Millisecond)) // i
	s.Tap(VKReturn, 28, base.Add(100*time.Millisecond))

	events := drainEvents(s.Events())
	require.Len(t, events, 3)
	assert.Equal(t, KindCharacter, events[0].Kind)
	assert.Equal(t, 'h', events[0].Rune)
	assert.Equal(t, KindCharacter, events[1].Kind)
	assert.Equal(t, 'i', events[1].Rune)
	assert.Equal(t, KindEnter, events[2].Kind)
}

func TestSimulatedSource_ShiftProducesUppercase(t *testing.T) {
	s := NewSimulated()
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	base := time.Now()
	s.Press(RawKey{VK: VKLShift, Scan: 42, When: base})
	s.Tap(VKA, 30, base.Add(10*time.Millisecond))
	s.Release(VKLShift)
	s.Tap(VKA, 30, base.Add(100*time.Millisecond))

	events := drainEvents(s.Events())
	require.Len(t, events, 2)
	assert.Equal(t, 'A', events[0].Rune)
	assert.Equal(t, 'a', events[1].Rune)
}

func TestSimulatedSource_CtrlShortcuts(t *testing.T) {
	s := NewSimulated()
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	base := time.Now()
	s.Press(RawKey{VK: VKLControl, Scan: 29, When: base})
	s.Tap(VKV, 47, base.Add(10*time.Millisecond))
	// Generic Ctrl combination: consumed, no event.
	s.Tap(VKA, 30, base.Add(20*time.Millisecond))
	s.Press(RawKey{VK: VKLShift, Scan: 42, When: base.Add(30 * time.Millisecond)})
	s.Tap(VKS, 31, base.Add(40*time.Millisecond))
	s.Tap(VKP, 25, base.Add(50*time.Millisecond))
	s.Tap(VKN, 49, base.Add(60*time.Millisecond))
	s.Release(VKLShift)
	s.Release(VKLControl)

	events := drainEvents(s.Events())
	require.Len(t, events, 4)
	assert.Equal(t, KindPaste, events[0].Kind)
	assert.Equal(t, KindManualSave, events[1].Kind)
	assert.Equal(t, KindTogglePause, events[2].Kind)
	assert.Equal(t, KindNewSegment, events[3].Kind)
}

func TestSimulatedSource_FIFOOrderPreserved(t *testing.T) {
	s := NewSimulated()
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	base := time.Now()
	text := "the quick brown fox"
	for i, r := range text {
		vk := VKSpace
		if r != ' ' {
			vk = VKA + uint32(r-'a')
		}
		s.Tap(vk, uint32(i), base.Add(time.Duration(i)*40*time.Millisecond))
	}

	events := drainEvents(s.Events())
	require.Len(t, events, len(text))
	var got []rune
	for _, ev := range events {
		got = append(got, ev.Rune)
	}
	assert.Equal(t, text, string(got))
}

func TestSimulatedSource_InjectedAndDuplicatesFiltered(t *testing.T) {
	s := NewSimulated()
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	base := time.Now()
	s.Press(RawKey{VK: VKA, Scan: 30, Injected: true, When: base})
	s.Press(RawKey{VK: VKA, Scan: 30, When: base.Add(time.Millisecond)})
	// Redelivery of the same hardware event inside the window.
	s.Press(RawKey{VK: VKA, Scan: 30, When: base.Add(2 * time.Millisecond)})

	events := drainEvents(s.Events())
	require.Len(t, events, 1)
	assert.Equal(t, 'a', events[0].Rune)
}

func TestSimulatedSource_StartTwice(t *testing.T) {
	s := NewSimulated()
	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)
	require.NoError(t, s.Stop())
}

func TestSimulatedSource_StopClosesChannel(t *testing.T) {
	s := NewSimulated()
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())

	_, ok := <-s.Events()
	assert.False(t, ok)
	// Stop is idempotent.
	assert.NoError(t, s.Stop())
}

func TestModifierTracker(t *testing.T) {
	tr := NewModifierTracker()

	tr.KeyDown(VKLControl)
	tr.KeyDown(VKRShift)
	assert.Equal(t, Modifiers{Ctrl: true, Shift: true}, tr.Snapshot())

	tr.KeyUp(VKLControl)
	assert.Equal(t, Modifiers{Shift: true}, tr.Snapshot())

	tr.KeyDown(VKMenu)
	assert.True(t, tr.Snapshot().Alt)

	// Non-modifier keys never touch the state.
	tr.KeyDown(VKA)
	tr.KeyUp(VKReturn)
	assert.Equal(t, Modifiers{Shift: true, Alt: true}, tr.Snapshot())

	tr.Reset()
	assert.Equal(t, Modifiers{}, tr.Snapshot())
}
