//go:build !linux

package hotkey

import (
	"fmt"
	"sync"

	hook "github.com/robotn/gohook"
	xhotkey "golang.design/x/hotkey"
)

// New picks a backend for the chord. "hook" observes raw key events and
// supports any chord; "system" registers the chord with the OS and needs a
// ctrl/shift modifier plus one letter or space. "auto" prefers system and
// falls back to hook.
func New(keys []string, backend string) (Hotkey, error) {
	switch backend {
	case "system":
		return newSystem(keys)
	case "hook":
		return newHook(keys)
	case "", "auto":
		if hk, err := newSystem(keys); err == nil {
			return hk, nil
		}
		return newHook(keys)
	}
	return nil, fmt.Errorf("unknown hotkey backend %q", backend)
}

type hookHotkey struct {
	edges
	chord *Chord
	stop  chan struct{}
	once  sync.Once
}

func newHook(keys []string) (*hookHotkey, error) {
	table := make(map[string]uint16, len(hook.Keycode))
	for name, code := range hook.Keycode {
		table[name] = code
	}
	// gohook names the left-hand modifiers without a prefix
	for _, m := range []string{"ctrl", "shift", "alt", "cmd"} {
		if code, ok := table[m]; ok {
			if _, has := table["l"+m]; !has {
				table["l"+m] = code
			}
		}
	}
	required, err := resolveChord(keys, table)
	if err != nil {
		return nil, err
	}
	return &hookHotkey{edges: newEdges(), chord: NewChord(required)}, nil
}

func (h *hookHotkey) Register() error {
	events := hook.Start()
	h.stop = make(chan struct{})
	go func() {
		for {
			select {
			case <-h.stop:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				h.emit(h.apply(ev))
			}
		}
	}()
	return nil
}

// apply feeds physical press and release events to the chord. gohook's
// KeyDown is the typed-character event, which may carry keycode 0 and has
// no matching release, so it is ignored.
func (h *hookHotkey) apply(ev hook.Event) Edge {
	switch ev.Kind {
	case hook.KeyHold:
		return h.chord.Press(ev.Keycode)
	case hook.KeyUp:
		return h.chord.Release(ev.Keycode)
	}
	return EdgeNone
}

func (h *hookHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		hook.End()
	})
}

type systemHotkey struct {
	edges
	hk *xhotkey.Hotkey
}

var systemKeys = map[string]xhotkey.Key{
	"space": xhotkey.KeySpace,
	"a": xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC, "d": xhotkey.KeyD,
	"e": xhotkey.KeyE, "f": xhotkey.KeyF, "g": xhotkey.KeyG, "h": xhotkey.KeyH,
	"i": xhotkey.KeyI, "j": xhotkey.KeyJ, "k": xhotkey.KeyK, "l": xhotkey.KeyL,
	"m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO, "p": xhotkey.KeyP,
	"q": xhotkey.KeyQ, "r": xhotkey.KeyR, "s": xhotkey.KeyS, "t": xhotkey.KeyT,
	"u": xhotkey.KeyU, "v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX,
	"y": xhotkey.KeyY, "z": xhotkey.KeyZ,
}

func newSystem(keys []string) (*systemHotkey, error) {
	var mods []xhotkey.Modifier
	var key xhotkey.Key
	haveKey := false
	for _, k := range keys {
		switch k {
		case "ctrl":
			mods = append(mods, xhotkey.ModCtrl)
		case "shift":
			mods = append(mods, xhotkey.ModShift)
		default:
			code, ok := systemKeys[k]
			if !ok || haveKey {
				return nil, fmt.Errorf("system hotkey cannot register %q", k)
			}
			key, haveKey = code, true
		}
	}
	if !haveKey || len(mods) == 0 {
		return nil, fmt.Errorf("system hotkey needs a ctrl/shift modifier and one key")
	}
	return &systemHotkey{edges: newEdges(), hk: xhotkey.New(mods, key)}, nil
}

func (h *systemHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for range h.hk.Keydown() {
			h.emit(EdgeEngaged)
		}
	}()
	go func() {
		for range h.hk.Keyup() {
			h.emit(EdgeReleased)
		}
	}()
	return nil
}

func (h *systemHotkey) Unregister() {
	h.hk.Unregister()
}

func Diagnose() (string, error) {
	return "hotkey support available (raw key hook and system registration)", nil
}
