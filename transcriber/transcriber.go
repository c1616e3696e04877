package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dictator/log"
	"dictator/vad"
)

// ErrTranscriptionFailed wraps every engine failure.
var ErrTranscriptionFailed = errors.New("transcription failed")

type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

type Result struct {
	Text           string
	Segments       []Segment
	AudioDuration  time.Duration
	SpeechDuration time.Duration
	Elapsed        time.Duration
	Network        *NetworkMetrics // remote engines only
}

// Transcriber turns normalized mono samples into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (Result, error)
}

// JoinSegments joins segment texts with single spaces and trims the result.
func JoinSegments(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func duration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

type filtered struct {
	engine Transcriber
	filter *vad.Filter
}

// WithVAD strips silence before calling engine. Empty or all-silent audio
// returns an empty result without reaching the engine. If the filter
// itself fails the untrimmed audio is used.
func WithVAD(engine Transcriber, filter *vad.Filter) Transcriber {
	return &filtered{engine: engine, filter: filter}
}

func (f *filtered) Name() string { return f.engine.Name() }

func (f *filtered) Transcribe(ctx context.Context, samples []float32, sampleRate int) (res Result, err error) {
	start := time.Now()
	audioDur := duration(len(samples), sampleRate)
	if len(samples) == 0 {
		return Result{}, nil
	}

	speech := samples
	if f.filter != nil {
		trimmed, verr := f.filter.Trim(samples, sampleRate)
		if verr != nil {
			log.Warnf("vad skipped: %v", verr)
		} else {
			speech = trimmed
		}
	}
	if len(speech) == 0 {
		log.Debugf("no speech in %.2fs of audio", audioDur.Seconds())
		return Result{AudioDuration: audioDur, Elapsed: time.Since(start)}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrTranscriptionFailed, f.engine.Name(), r)
		}
	}()

	res, err = f.engine.Transcribe(ctx, speech, sampleRate)
	if err != nil {
		if !errors.Is(err, ErrTranscriptionFailed) {
			err = fmt.Errorf("%w: %s: %v", ErrTranscriptionFailed, f.engine.Name(), err)
		}
		return Result{}, err
	}
	res.Text = strings.TrimSpace(res.Text)
	res.AudioDuration = audioDur
	res.SpeechDuration = duration(len(speech), sampleRate)
	res.Elapsed = time.Since(start)
	return res, nil
}
