// Package presence carries the user-visible dictation state to whatever
// surfaces are showing it: tray icon, console, TUI, audio cues.
package presence

import (
	"errors"
	"fmt"
	"sync"

	"dictator/log"
)

// ErrIndicatorUpdate wraps any failure reported by a sink.
var ErrIndicatorUpdate = errors.New("indicator update failed")

type State int

const (
	Idle State = iota
	Listening
	Transcribing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Transcribing:
		return "transcribing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Sink interface {
	SetState(State) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(State) error

func (f SinkFunc) SetState(s State) error { return f(s) }

// Multi updates every sink in order. All sinks are attempted; their
// failures are joined.
type Multi []Sink

func (m Multi) SetState(s State) (err error) {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if e := Update(sink, s); e != nil {
			err = errors.Join(err, e)
		}
	}
	return err
}

// Update calls sink.SetState, converting a panic into an error.
func Update(sink Sink, s State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrIndicatorUpdate, s, r)
		}
	}()
	if e := sink.SetState(s); e != nil {
		if errors.Is(e, ErrIndicatorUpdate) {
			return e
		}
		return fmt.Errorf("%w: %s: %v", ErrIndicatorUpdate, s, e)
	}
	return nil
}

// Safe wraps a sink so failures are logged and never returned.
func Safe(sink Sink) Sink {
	return SinkFunc(func(s State) error {
		if err := Update(sink, s); err != nil {
			log.Warnf("%v", err)
		}
		return nil
	})
}

// Console logs a status line on every transition.
type Console struct{}

func (Console) SetState(s State) error {
	log.Infof("status: %s", s)
	return nil
}

// Recorder keeps the states it has seen. Tests use it as a fake sink.
type Recorder struct {
	mu     sync.Mutex
	states []State
	Err    error
}

func (r *Recorder) SetState(s State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
	return r.Err
}

func (r *Recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}
