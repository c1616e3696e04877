package tray

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"dictator/presence"
)

type fakeSurface struct {
	icons  [][]byte
	titles []string
	quits  int
}

func (f *fakeSurface) SetIcon(b []byte)  { f.icons = append(f.icons, b) }
func (f *fakeSurface) SetTitle(s string) { f.titles = append(f.titles, s) }
func (f *fakeSurface) SetTooltip(string) {}
func (f *fakeSurface) Quit()             { f.quits++ }

func TestIconColors(t *testing.T) {
	tests := map[presence.State]color.RGBA{
		presence.Idle:         {R: 60, G: 179, B: 113, A: 255},
		presence.Listening:    {R: 255, A: 255},
		presence.Transcribing: {B: 255, A: 255},
	}
	for state, want := range tests {
		img, err := png.Decode(bytes.NewReader(pngIcons[state]))
		if err != nil {
			t.Fatalf("%s: %v", state, err)
		}
		if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
			t.Errorf("%s: size %v", state, b)
		}
		r, g, bl, a := img.At(32, 32).RGBA()
		got := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: uint8(a >> 8)}
		if got != want {
			t.Errorf("%s: centre = %v, want %v", state, got, want)
		}
		if _, _, _, a := img.At(2, 2).RGBA(); a != 0 {
			t.Errorf("%s: corner not transparent", state)
		}
	}
}

func TestIndicatorDefersUntilReady(t *testing.T) {
	fs := &fakeSurface{}
	ind := New("Right Alt")
	ind.surf = fs

	if err := ind.SetState(presence.Listening); err != nil {
		t.Fatal(err)
	}
	if len(fs.titles) != 0 {
		t.Fatalf("updated before ready: %v", fs.titles)
	}
	ind.markReady()
	if len(fs.titles) != 1 || !strings.HasSuffix(fs.titles[0], "LISTENING") {
		t.Fatalf("titles = %v", fs.titles)
	}

	ind.SetState(presence.Idle)
	if got := fs.titles[len(fs.titles)-1]; got != "Local Whisper Dictator (Hotkey: Right Alt)" {
		t.Errorf("idle title = %q", got)
	}
	if !bytes.Equal(fs.icons[len(fs.icons)-1], icons[presence.Idle]) {
		t.Error("idle icon not applied")
	}
}

func TestIndicatorUnknownState(t *testing.T) {
	ind := New("x")
	ind.surf = &fakeSurface{}
	if err := ind.SetState(presence.State(7)); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestWrapICO(t *testing.T) {
	raw := pngIcons[presence.Idle]
	ico := wrapICO(raw, iconSize)

	if !bytes.HasPrefix(ico, []byte{0, 0, 1, 0, 1, 0}) {
		t.Fatalf("ICONDIR = % x", ico[:6])
	}
	if ico[6] != iconSize || ico[7] != iconSize {
		t.Errorf("entry size = %dx%d", ico[6], ico[7])
	}
	if n := binary.LittleEndian.Uint32(ico[14:]); n != uint32(len(raw)) {
		t.Errorf("image length = %d, want %d", n, len(raw))
	}
	off := binary.LittleEndian.Uint32(ico[18:])
	if off != 22 {
		t.Fatalf("image offset = %d, want 22", off)
	}
	if _, err := png.Decode(bytes.NewReader(ico[off:])); err != nil {
		t.Errorf("embedded image: %v", err)
	}
	if big := wrapICO(raw, 256); big[6] != 0 || big[7] != 0 {
		t.Error("256px entry should be encoded as 0")
	}
}

func TestQuitOnlyOnceReady(t *testing.T) {
	fs := &fakeSurface{}
	ind := New("x")
	ind.surf = fs

	ind.Quit()
	if fs.quits != 0 {
		t.Fatal("quit before the tray was ready")
	}
	ind.markReady()
	ind.Quit()
	ind.Quit()
	if fs.quits != 1 {
		t.Errorf("quits = %d, want 1", fs.quits)
	}
	n := len(fs.icons)
	ind.SetState(presence.Listening)
	if len(fs.icons) != n {
		t.Error("icon updated after Quit")
	}
}
