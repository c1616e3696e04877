//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
	keyRepeat  = 2
)

// struct input_event on 64-bit kernels: a 16 byte timeval followed by
// type, code and value.
const inputEventSize = 24

const (
	devInput   = "/dev/input"
	sysInput   = "/sys/class/input"
	errNoGroup = "run: sudo usermod -aG input $USER, then re-login"
)

// evdevCodes maps key names to linux input event codes.
var evdevCodes = map[string]uint16{
	"esc": 1, "tab": 15, "capslock": 58, "space": 57, "enter": 28,
	"lctrl": 29, "rctrl": 97, "lshift": 42, "rshift": 54,
	"lalt": 56, "ralt": 100, "lmeta": 125, "rmeta": 126,
	"lsuper": 125, "rsuper": 126,
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64,
	"f7": 65, "f8": 66, "f9": 67, "f10": 68, "f11": 87, "f12": 88,
	"pause": 119, "scrolllock": 70,
}

type inputEvent struct {
	typ   uint16
	code  uint16
	value int32
}

// decodeEvents splits a read buffer into whole input events. A trailing
// partial event is dropped.
func decodeEvents(buf []byte) []inputEvent {
	events := make([]inputEvent, 0, len(buf)/inputEventSize)
	for off := 0; off+inputEventSize <= len(buf); off += inputEventSize {
		ev := buf[off+16 : off+inputEventSize]
		events = append(events, inputEvent{
			typ:   binary.LittleEndian.Uint16(ev[0:]),
			code:  binary.LittleEndian.Uint16(ev[2:]),
			value: int32(binary.LittleEndian.Uint32(ev[4:])),
		})
	}
	return events
}

type linuxHotkey struct {
	edges
	chord *Chord

	mu     sync.Mutex
	files  []*os.File
	closed bool
}

// New reads key events from /dev/input and tracks the chord across all
// keyboards. The backend argument is ignored on linux.
func New(keys []string, _ string) (Hotkey, error) {
	required, err := resolveChord(keys, evdevCodes)
	if err != nil {
		return nil, err
	}
	return &linuxHotkey{edges: newEdges(), chord: NewChord(required)}, nil
}

func (h *linuxHotkey) Register() error {
	paths, err := keyboards(devInput, sysInput)
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no keyboard devices found (%s)", errNoGroup)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.read(f)
	}
	if len(h.files) == 0 {
		return fmt.Errorf("could not open any of %d keyboard devices (%s)", len(paths), errNoGroup)
	}
	return nil
}

// read runs until the device is closed by Unregister or unplugged.
func (h *linuxHotkey) read(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		for _, ev := range decodeEvents(buf[:n]) {
			h.emit(h.apply(ev.typ, ev.code, ev.value))
		}
	}
}

func (h *linuxHotkey) apply(evType, code uint16, value int32) Edge {
	if evType != evKey {
		return EdgeNone
	}
	switch value {
	case keyPress:
		return h.chord.Press(code)
	case keyRelease:
		return h.chord.Release(code)
	}
	// autorepeat leaves the held set unchanged
	return EdgeNone
}

func (h *linuxHotkey) Unregister() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, f := range h.files {
		f.Close()
	}
	h.files = nil
}

// keyboards lists event nodes under dev whose key capability bitmap in
// sys is wide enough to be a real keyboard rather than a power button.
func keyboards(dev, sys string) ([]string, error) {
	entries, err := os.ReadDir(dev)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "event") {
			continue
		}
		caps, err := os.ReadFile(filepath.Join(sys, name, "device", "capabilities", "key"))
		if err != nil || len(strings.TrimSpace(string(caps))) <= 10 {
			continue
		}
		out = append(out, filepath.Join(dev, name))
	}
	return out, nil
}

func Diagnose() (string, error) {
	paths, err := keyboards(devInput, sysInput)
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no keyboard devices found (%s)", errNoGroup)
	}
	for _, path := range paths {
		if f, err := os.Open(path); err == nil {
			f.Close()
			return fmt.Sprintf("%d keyboard(s) found, opened %s", len(paths), path), nil
		}
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (%s)", len(paths), errNoGroup)
}
