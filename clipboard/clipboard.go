// Package clipboard delivers text by pasting it instead of typing it,
// which is faster for long dictations and handles any script.
package clipboard

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"

	"dictator/log"
)

func Copy(text string) error {
	return clipboard.WriteAll(text)
}

func Read() (string, error) {
	return clipboard.ReadAll()
}

// Paster puts text on the clipboard, sends the paste chord, then restores
// whatever the clipboard held before.
type Paster struct {
	// Settle is how long the target gets to read the clipboard before it is restored.
	Settle time.Duration

	copy  func(string) error
	read  func() (string, error)
	paste func() error
}

func NewPaster() *Paster {
	return &Paster{Settle: 300 * time.Millisecond, copy: Copy, read: Read, paste: Paste}
}

func (p *Paster) Type(ctx context.Context, text string) error {
	prev, readErr := p.read()
	if err := p.copy(text); err != nil {
		return fmt.Errorf("clipboard copy: %w", err)
	}
	if err := p.paste(); err != nil {
		return fmt.Errorf("paste keystroke: %w", err)
	}
	if readErr != nil {
		return nil
	}
	select {
	case <-time.After(p.Settle):
	case <-ctx.Done():
	}
	if err := p.copy(prev); err != nil {
		log.Warnf("clipboard restore: %v", err)
	}
	return nil
}
