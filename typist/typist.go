// Package typist types text into the focused window as synthetic key
// presses.
package typist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"dictator/log"
)

// ErrInjectionFailed wraps the failure to emit one character.
var ErrInjectionFailed = errors.New("key injection failed")

const DefaultDelay = 5 * time.Millisecond

// Injector emits key events for a single character.
type Injector interface {
	Press(r rune) error
	Release(r rune) error
}

type Typist struct {
	inj   Injector
	delay time.Duration
	sleep func(time.Duration)
}

func New(inj Injector, delay time.Duration) *Typist {
	return &Typist{inj: inj, delay: delay, sleep: time.Sleep}
}

// Type sends one press and one release per character, pausing between
// characters. A character that cannot be typed is logged and skipped; the
// returned error joins every such failure.
func (t *Typist) Type(ctx context.Context, text string) error {
	text = norm.NFC.String(text)
	var errs []error
	first := true
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !first && t.delay > 0 {
			t.sleep(t.delay)
		}
		first = false

		if err := t.tap(r); err != nil {
			log.Warnf("typing %q: %v", r, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Typist) tap(r rune) error {
	if err := t.inj.Press(r); err != nil {
		return fmt.Errorf("%w: press %q: %v", ErrInjectionFailed, r, err)
	}
	if err := t.inj.Release(r); err != nil {
		return fmt.Errorf("%w: release %q: %v", ErrInjectionFailed, r, err)
	}
	return nil
}
