package vad

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func genTone(freq float64, durationMs int) []float32 {
	n := 16000 * durationMs / 1000
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/16000))
	}
	return out
}

// loudDetector treats any frame with a non-zero sample as speech.
type loudDetector struct{}

func (loudDetector) IsSpeech(frame []byte, _ int) (bool, error) {
	for _, b := range frame {
		if b != 0 {
			return true, nil
		}
	}
	return false, nil
}

func testFilter() *Filter {
	f := New(100 * time.Millisecond)
	f.Padding = 40 * time.Millisecond
	f.NewDetector = func() (Detector, error) { return loudDetector{}, nil }
	return f
}

func TestSpans(t *testing.T) {
	tests := []struct {
		name   string
		flags  []bool
		minGap int
		pad    int
		want   []Span
	}{
		{"silence", []bool{false, false, false}, 2, 1, nil},
		{"single", []bool{false, true, false, false}, 2, 0, []Span{{1, 2}}},
		{"bridged", []bool{true, false, true}, 2, 0, []Span{{0, 3}}},
		{"split", []bool{true, false, false, false, true}, 2, 0, []Span{{0, 1}, {4, 5}}},
		{"padded merge", []bool{true, false, false, false, true}, 2, 2, []Span{{0, 5}}},
		{"pad clipped", []bool{false, true, false}, 0, 5, []Span{{0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spans(tt.flags, tt.minGap, tt.pad)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrimRemovesLongSilence(t *testing.T) {
	f := testFilter()
	var in []float32
	in = append(in, make([]float32, 16000)...) // 1s silence
	in = append(in, genTone(300, 200)...)
	in = append(in, make([]float32, 16000)...)
	in = append(in, genTone(300, 200)...)

	out, err := f.Trim(in, 16000)
	if err != nil {
		t.Fatal(err)
	}
	// 40ms padding on both sides of the first burst, only before the second
	want := (3200 + 2*640) + (3200 + 640)
	if len(out) != want {
		t.Errorf("trimmed to %d samples, want %d", len(out), want)
	}
}

func TestTrimAllSilenceIsEmpty(t *testing.T) {
	out, err := testFilter().Trim(make([]float32, 8000), 16000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("got %d samples, want 0", len(out))
	}
}

func TestWebRTCSilence(t *testing.T) {
	f := New(500 * time.Millisecond)
	flags, err := f.Classify(make([]float32, 16000*200/1000), 16000)
	if err != nil {
		t.Fatal(err)
	}
	if len(flags) != 10 {
		t.Fatalf("got %d frames, want 10", len(flags))
	}
	for i, s := range flags {
		if s {
			t.Errorf("frame %d classified as speech", i)
		}
	}
}

func TestClassifyRejectsRate(t *testing.T) {
	if _, err := New(0).Classify(make([]float32, 441), 44100); err == nil {
		t.Error("expected error for 44.1kHz")
	}
}
