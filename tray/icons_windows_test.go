package tray

import (
	"bytes"
	"testing"
)

func TestWindowsIconsAreICO(t *testing.T) {
	for state, b := range icons {
		if !bytes.HasPrefix(b, []byte{0, 0, 1, 0}) {
			t.Errorf("%s: header % x, want ICO", state, b[:4])
		}
	}
}
