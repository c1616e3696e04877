// Package vad drops long silences from recorded audio before it reaches a
// speech-to-text engine.
package vad

import (
	"fmt"
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"dictator/audio"
)

const (
	Mode    = 3
	FrameMs = 20
)

// Detector classifies one FrameMs frame of s16 little-endian PCM.
type Detector interface {
	IsSpeech(frame []byte, sampleRate int) (bool, error)
}

type webrtcDetector struct {
	vad *webrtcvad.VAD
}

// NewWebRTC returns a detector at the given aggressiveness (0-3). It is not
// safe for concurrent use.
func NewWebRTC(mode int) (Detector, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(mode); err != nil {
		return nil, err
	}
	return &webrtcDetector{vad: v}, nil
}

func (d *webrtcDetector) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	return d.vad.Process(sampleRate, frame)
}

// Span is a half-open range of sample indices.
type Span struct {
	Start, End int
}

func (s Span) Len() int { return s.End - s.Start }

// Filter keeps speech plus Padding around it, and removes silent stretches
// longer than MinSilence.
type Filter struct {
	MinSilence time.Duration
	Padding    time.Duration
	// NewDetector builds a detector per call; nil means webrtc at Mode.
	NewDetector func() (Detector, error)
}

func New(minSilence time.Duration) *Filter {
	return &Filter{MinSilence: minSilence, Padding: 200 * time.Millisecond}
}

func (f *Filter) detector() (Detector, error) {
	if f.NewDetector != nil {
		return f.NewDetector()
	}
	return NewWebRTC(Mode)
}

// Classify reports speech for each full frame of samples. A trailing
// partial frame is not classified.
func (f *Filter) Classify(samples []float32, sampleRate int) ([]bool, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("vad: unsupported sample rate %d", sampleRate)
	}
	det, err := f.detector()
	if err != nil {
		return nil, fmt.Errorf("vad: %w", err)
	}
	frameLen := sampleRate * FrameMs / 1000
	pcm := audio.Denormalize(samples)
	flags := make([]bool, 0, len(pcm)/frameLen)
	for off := 0; off+frameLen <= len(pcm); off += frameLen {
		speech, err := det.IsSpeech(audio.EncodeS16(pcm[off:off+frameLen]), sampleRate)
		if err != nil {
			return nil, fmt.Errorf("vad frame %d: %w", off/frameLen, err)
		}
		flags = append(flags, speech)
	}
	return flags, nil
}

// Speech returns the sample spans to keep. No spans means no speech.
func (f *Filter) Speech(samples []float32, sampleRate int) ([]Span, error) {
	flags, err := f.Classify(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	frameLen := sampleRate * FrameMs / 1000
	minGap := int(f.MinSilence / (FrameMs * time.Millisecond))
	pad := int(f.Padding / (FrameMs * time.Millisecond))

	frames := spans(flags, minGap, pad)
	out := make([]Span, len(frames))
	for i, s := range frames {
		out[i] = Span{Start: s.Start * frameLen, End: min(s.End*frameLen, len(samples))}
	}
	// audio after the last full frame belongs to a span that reaches it
	if n := len(out); n > 0 && out[n-1].End == len(flags)*frameLen {
		out[n-1].End = len(samples)
	}
	return out, nil
}

// Trim concatenates the speech spans. The result is empty for silence.
func (f *Filter) Trim(samples []float32, sampleRate int) ([]float32, error) {
	kept, err := f.Speech(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, s := range kept {
		total += s.Len()
	}
	out := make([]float32, 0, total)
	for _, s := range kept {
		out = append(out, samples[s.Start:s.End]...)
	}
	return out, nil
}

// spans groups speech frames into ranges, bridging gaps shorter than minGap
// frames and extending each range by pad frames on both sides.
func spans(flags []bool, minGap, pad int) []Span {
	var raw []Span
	for i := 0; i < len(flags); {
		if !flags[i] {
			i++
			continue
		}
		j := i
		for j < len(flags) && flags[j] {
			j++
		}
		if n := len(raw); n > 0 && i-raw[n-1].End < minGap {
			raw[n-1].End = j
		} else {
			raw = append(raw, Span{Start: i, End: j})
		}
		i = j
	}

	var out []Span
	for _, s := range raw {
		s.Start = max(s.Start-pad, 0)
		s.End = min(s.End+pad, len(flags))
		if n := len(out); n > 0 && s.Start <= out[n-1].End {
			out[n-1].End = max(out[n-1].End, s.End)
			continue
		}
		out = append(out, s)
	}
	return out
}
