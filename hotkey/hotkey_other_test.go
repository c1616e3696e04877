//go:build !linux

package hotkey

import (
	"testing"

	hook "github.com/robotn/gohook"
)

func TestHookIgnoresTypedEvents(t *testing.T) {
	const ralt = 3640
	h := &hookHotkey{edges: newEdges(), chord: NewChord([][]uint16{{ralt}})}

	steps := []struct {
		kind uint8
		code uint16
		want Edge
	}{
		{hook.KeyDown, 0, EdgeNone}, // typed event without a keycode
		{hook.KeyHold, ralt, EdgeEngaged},
		{hook.KeyDown, ralt, EdgeNone},
		{hook.KeyHold, ralt, EdgeNone}, // autorepeat
		{hook.KeyUp, ralt, EdgeReleased},
	}
	for i, s := range steps {
		if got := h.apply(hook.Event{Kind: s.kind, Keycode: s.code}); got != s.want {
			t.Errorf("step %d: got %v, want %v", i, got, s.want)
		}
	}
	if held := h.chord.Pressed(); len(held) != 0 {
		t.Errorf("held after release: %v", held)
	}
}
