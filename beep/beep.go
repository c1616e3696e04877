// Package beep plays short cues when recording starts and stops, and when
// a dictation fails.
package beep

import (
	"math"

	"dictator/dictation"
	"dictator/presence"
)

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq     = 1200
	startVolume   = 0.5
	startDecay    = 60
	startDuration = 0.03

	// End beep: medium pitch, slightly longer
	endFreq     = 900
	endVolume   = 0.5
	endDecay    = 40
	endDuration = 0.05

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

func generateTick(freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(freq, beepDur, gapDur, volume, decay float64) []int16 {
	tick := generateTick(freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	out := make([]int16, 0, len(tick)*2+len(gap))
	out = append(out, tick...)
	out = append(out, gap...)
	return append(out, tick...)
}

type Cue int

const (
	CueStart Cue = iota
	CueEnd
	CueError
)

func playCue(c Cue) {
	switch c {
	case CueStart:
		PlayStart()
	case CueEnd:
		PlayEnd()
	case CueError:
		PlayError()
	}
}

// Sink plays the start cue on Listening and the end cue on Transcribing.
// As a dictation.Observer it plays the error cue for a failed session and
// for a press refused while busy.
type Sink struct {
	// Play defaults to the platform player.
	Play func(Cue)
}

func (s Sink) play(c Cue) {
	if s.Play != nil {
		s.Play(c)
		return
	}
	playCue(c)
}

func (s Sink) SetState(st presence.State) error {
	switch st {
	case presence.Listening:
		s.play(CueStart)
	case presence.Transcribing:
		s.play(CueEnd)
	}
	return nil
}

func (s Sink) SessionStarted(string) {}

func (s Sink) SessionBusy() { s.play(CueError) }

func (s Sink) SessionFinished(sum dictation.Summary) {
	if sum.Err != nil {
		s.play(CueError)
	}
}
