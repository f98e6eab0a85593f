package keyboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_DecisionTable(t *testing.T) {
	at := time.Now()

	tests := []struct {
		name     string
		vk       uint32
		mods     Modifiers
		resolved []rune
		want     []Kind
		wantRune rune
	}{
		{
			name: "return without ctrl",
			vk:   VKReturn,
			want: []Kind{KindEnter},
		},
		{
			name: "return with ctrl",
			vk:   VKReturn,
			mods: Modifiers{Ctrl: true},
			want: []Kind{KindCtrlEnter},
		},
		{
			name: "return with ctrl and shift still ctrl-enter",
			vk:   VKReturn,
			mods: Modifiers{Ctrl: true, Shift: true},
			want: []Kind{KindCtrlEnter},
		},
		{
			name: "backspace",
			vk:   VKBack,
			want: []Kind{KindBackspace},
		},
		{
			name: "ctrl+v is paste",
			vk:   VKV,
			mods: Modifiers{Ctrl: true},
			want: []Kind{KindPaste},
		},
		{
			name: "ctrl+shift+v suppressed",
			vk:   VKV,
			mods: Modifiers{Ctrl: true, Shift: true},
			want: nil,
		},
		{
			name: "ctrl+shift+s is manual save",
			vk:   VKS,
			mods: Modifiers{Ctrl: true, Shift: true},
			want: []Kind{KindManualSave},
		},
		{
			name: "ctrl+shift+p toggles pause",
			vk:   VKP,
			mods: Modifiers{Ctrl: true, Shift: true},
			want: []Kind{KindTogglePause},
		},
		{
			name: "ctrl+shift+n starts a new segment",
			vk:   VKN,
			mods: Modifiers{Ctrl: true, Shift: true},
			want: []Kind{KindNewSegment},
		},
		{
			name:     "ctrl+other suppressed even with resolution",
			vk:       VKA,
			mods:     Modifiers{Ctrl: true},
			resolved: []rune{'a'},
			want:     nil,
		},
		{
			name:     "plain character",
			vk:       VKA,
			resolved: []rune{'a'},
			want:     []Kind{KindCharacter},
			wantRune: 'a',
		},
		{
			name: "unresolved key suppressed",
			vk:   VKEscape,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Classify(tt.vk, tt.mods, tt.resolved, at)
			require.Len(t, events, len(tt.want))
			for i, ev := range events {
				assert.Equal(t, tt.want[i], ev.Kind)
				assert.Equal(t, at, ev.Time)
			}
			if tt.wantRune != 0 {
				assert.Equal(t, tt.wantRune, events[0].Rune)
			}
		})
	}
}

func TestClassify_IMEMultiCharacterConfirmation(t *testing.T) {
	// A single key-down may resolve to several code points when an input
	// method confirms a composed string.
	events := Classify(VKA, Modifiers{}, []rune("回声"), time.Now())
	require.Len(t, events, 2)
	assert.Equal(t, '回', events[0].Rune)
	assert.Equal(t, '声', events[1].Rune)
}

func TestClassify_ControlRunesFiltered(t *testing.T) {
	events := Classify(VKA, Modifiers{}, []rune{'\r', 'x', '\n'}, time.Now())
	require.Len(t, events, 1)
	assert.Equal(t, 'x', events[0].Rune)
}
