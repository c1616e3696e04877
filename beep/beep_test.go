package beep

import (
	"errors"
	"reflect"
	"testing"

	"dictator/dictation"
	"dictator/presence"
)

func TestGenerateTickLength(t *testing.T) {
	got := generateTick(startFreq, startDuration, startVolume, startDecay)
	want := int(sampleRate * startDuration)
	if len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}
	var peak int16
	for _, s := range got {
		if s > peak {
			peak = s
		}
	}
	volume := startVolume
	if limit := int16(32767 * volume); peak > limit {
		t.Errorf("peak %d exceeds volume limit %d", peak, limit)
	}
}

func TestDoubleBeepHasGap(t *testing.T) {
	tick := generateTick(errorFreq, 0.08, errorVolume, errorDecay)
	got := generateDoubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	gap := int(sampleRate * 0.05)
	if len(got) != 2*len(tick)+gap {
		t.Fatalf("len = %d, want %d", len(got), 2*len(tick)+gap)
	}
	for i := len(tick); i < len(tick)+gap; i++ {
		if got[i] != 0 {
			t.Fatalf("sample %d in gap is %d, want 0", i, got[i])
		}
	}
}

func TestSinkCues(t *testing.T) {
	var got []Cue
	s := Sink{Play: func(c Cue) { got = append(got, c) }}

	s.SetState(presence.Listening)
	s.SetState(presence.Transcribing)
	s.SessionFinished(dictation.Summary{})
	s.SetState(presence.Idle)
	s.SessionBusy()
	s.SessionFinished(dictation.Summary{Err: errors.New("engine down")})

	want := []Cue{CueStart, CueEnd, CueError, CueError}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cues = %v, want %v", got, want)
	}
}
