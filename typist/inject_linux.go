//go:build linux

package typist

import (
	"fmt"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

type keybdInjector struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// NewInjector creates a virtual keyboard through uinput. The compositor
// needs a moment to pick the new device up before the first key.
func NewInjector() (Injector, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("creating virtual keyboard: %w", err)
	}
	time.Sleep(500 * time.Millisecond)
	return &keybdInjector{kb: kb}, nil
}

func (k *keybdInjector) set(r rune) error {
	ks, ok := charToKey(r)
	if !ok {
		return fmt.Errorf("no key for %q on US layout", r)
	}
	k.kb.Clear()
	k.kb.SetKeys(ks.code)
	k.kb.HasSHIFT(ks.shift)
	return nil
}

func (k *keybdInjector) Press(r rune) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.set(r); err != nil {
		return err
	}
	return k.kb.Press()
}

func (k *keybdInjector) Release(r rune) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.set(r); err != nil {
		return err
	}
	return k.kb.Release()
}
