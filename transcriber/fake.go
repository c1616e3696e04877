package transcriber

import (
	"context"
	"sync"
	"time"
)

// Fake returns a canned result and records the audio it was given.
type Fake struct {
	Text  string
	Err   error
	Delay time.Duration

	mu    sync.Mutex
	calls [][]float32
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, samples []float32, _ int) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]float32(nil), samples...))
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	if f.Err != nil {
		return Result{}, f.Err
	}
	return Result{Text: f.Text, Segments: []Segment{{Text: f.Text}}}, nil
}

// Calls returns copies of the sample slices passed to Transcribe.
func (f *Fake) Calls() [][]float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]float32(nil), f.calls...)
}
