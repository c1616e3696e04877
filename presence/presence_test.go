package presence

import (
	"errors"
	"testing"
)

func TestMultiAttemptsEverySink(t *testing.T) {
	failing := &Recorder{Err: errors.New("tray gone")}
	ok := &Recorder{}

	err := Multi{failing, nil, ok}.SetState(Listening)
	if !errors.Is(err, ErrIndicatorUpdate) {
		t.Fatalf("got %v, want ErrIndicatorUpdate", err)
	}
	if got := ok.States(); len(got) != 1 || got[0] != Listening {
		t.Errorf("second sink saw %v, want [listening]", got)
	}
}

func TestUpdateRecoversPanic(t *testing.T) {
	sink := SinkFunc(func(State) error { panic("icon decode") })
	err := Update(sink, Transcribing)
	if !errors.Is(err, ErrIndicatorUpdate) {
		t.Fatalf("got %v, want ErrIndicatorUpdate", err)
	}
}

func TestSafeSwallowsErrors(t *testing.T) {
	sink := Safe(SinkFunc(func(State) error { return errors.New("boom") }))
	if err := sink.SetState(Idle); err != nil {
		t.Errorf("Safe returned %v", err)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Idle:         "idle",
		Listening:    "listening",
		Transcribing: "transcribing",
		State(9):     "state(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d: got %q, want %q", int(s), got, want)
		}
	}
}
