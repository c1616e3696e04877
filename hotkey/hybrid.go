package hotkey

import (
	"sync/atomic"
	"time"
)

// Hybrid turns a push-to-talk hotkey into tap-to-toggle plus hold-to-talk on
// the same chord. It is itself a Hotkey: Keydown means start recording and
// Keyup means stop, whichever way the user triggered it.
type Hybrid struct {
	edges
	inner  Hotkey
	toggle atomic.Bool
	done   chan struct{}
}

// NewHybrid wraps hk. A press held longer than longPress is treated as
// push-to-talk; a shorter tap keeps recording until the next press is
// released.
func NewHybrid(hk Hotkey, longPress time.Duration) *Hybrid {
	h := &Hybrid{
		edges: newEdges(),
		inner: hk,
		done:  make(chan struct{}),
	}
	go h.run(longPress)
	return h
}

func (h *Hybrid) Register() error { return h.inner.Register() }

func (h *Hybrid) Unregister() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
	h.inner.Unregister()
}

// IsToggle reports whether the current recording was started by a tap.
func (h *Hybrid) IsToggle() bool { return h.toggle.Load() }

func (h *Hybrid) wait(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hybrid) run(longPress time.Duration) {
	for {
		if !h.wait(h.inner.Keydown()) {
			return
		}
		h.toggle.Store(false)
		h.emit(EdgeEngaged)

		timer := time.NewTimer(longPress)
		select {
		case <-h.done:
			timer.Stop()
			return
		case <-timer.C:
			// held: stop on release
			if !h.wait(h.inner.Keyup()) {
				return
			}
		case <-h.inner.Keyup():
			timer.Stop()
			h.toggle.Store(true)
			// tapped: the next full press stops
			if !h.wait(h.inner.Keydown()) || !h.wait(h.inner.Keyup()) {
				return
			}
		}
		h.emit(EdgeReleased)
	}
}
