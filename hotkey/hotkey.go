package hotkey

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// ParseChord splits a chord such as "ctrl+shift+space" into lower-case key
// names. Duplicates are rejected.
func ParseChord(spec string) ([]string, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if spec == "" {
		return nil, fmt.Errorf("empty hotkey")
	}
	seen := map[string]bool{}
	var keys []string
	for _, part := range strings.Split(spec, "+") {
		name := strings.TrimSpace(part)
		if name == "" {
			return nil, fmt.Errorf("hotkey %q: empty key name", spec)
		}
		if seen[name] {
			return nil, fmt.Errorf("hotkey %q: %s listed twice", spec, name)
		}
		seen[name] = true
		keys = append(keys, name)
	}
	return keys, nil
}

// Display renders key names for titles, e.g. "Right Alt" or "Ctrl+Shift+Space".
func Display(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		switch {
		case len(k) > 1 && (k[0] == 'l' || k[0] == 'r') && isModifier(k[1:]):
			side := "Left "
			if k[0] == 'r' {
				side = "Right "
			}
			parts[i] = side + titleCase(k[1:])
		case len(k) == 1 || (k[0] == 'f' && len(k) <= 3):
			parts[i] = strings.ToUpper(k)
		default:
			parts[i] = titleCase(k)
		}
	}
	return strings.Join(parts, "+")
}

func isModifier(name string) bool {
	switch name {
	case "ctrl", "shift", "alt", "meta", "super", "cmd":
		return true
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Edge is what a key event did to the chord.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeEngaged
	EdgeReleased
)

// Chord tracks physically held keys and reports when the required
// combination becomes fully held or stops being fully held. Each required
// slot may be satisfied by any of several codes (left or right ctrl).
type Chord struct {
	mu       sync.Mutex
	required [][]uint16
	pressed  map[uint16]bool
	engaged  bool
}

func NewChord(required [][]uint16) *Chord {
	return &Chord{required: required, pressed: map[uint16]bool{}}
}

// Press records a key going down. Repeats of a held key are harmless.
func (c *Chord) Press(code uint16) Edge {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pressed[code] = true
	if !c.engaged && c.satisfied() {
		c.engaged = true
		return EdgeEngaged
	}
	return EdgeNone
}

// Release records a key going up. Releasing a key that was never seen
// pressed is tolerated.
func (c *Chord) Release(code uint16) Edge {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pressed, code)
	if c.engaged && !c.satisfied() {
		c.engaged = false
		return EdgeReleased
	}
	return EdgeNone
}

func (c *Chord) Engaged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engaged
}

// Pressed returns the held key codes in ascending order.
func (c *Chord) Pressed() []uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint16, 0, len(c.pressed))
	for k := range c.pressed {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Chord) satisfied() bool {
	if len(c.required) == 0 {
		return false
	}
	for _, slot := range c.required {
		held := false
		for _, code := range slot {
			if c.pressed[code] {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}
	return true
}

// resolveChord maps key names through table, expanding sideless modifiers
// such as "ctrl" into both sides.
func resolveChord(keys []string, table map[string]uint16) ([][]uint16, error) {
	var out [][]uint16
	for _, k := range keys {
		if code, ok := table[k]; ok {
			out = append(out, []uint16{code})
			continue
		}
		if isModifier(k) {
			l, lok := table["l"+k]
			r, rok := table["r"+k]
			if lok && rok {
				out = append(out, []uint16{l, r})
				continue
			}
		}
		return nil, fmt.Errorf("unknown key %q", k)
	}
	return out, nil
}

// edges is the keydown/keyup channel pair every backend exposes. Sends
// never block; an edge is dropped if the previous one was not consumed.
type edges struct {
	keydown chan struct{}
	keyup   chan struct{}
}

func newEdges() edges {
	return edges{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (e edges) emit(edge Edge) {
	var ch chan struct{}
	switch edge {
	case EdgeEngaged:
		ch = e.keydown
	case EdgeReleased:
		ch = e.keyup
	default:
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (e edges) Keydown() <-chan struct{} { return e.keydown }
func (e edges) Keyup() <-chan struct{}   { return e.keyup }
