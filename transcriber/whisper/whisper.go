// Package whisper runs whisper.cpp models in process.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"dictator/log"
	"dictator/transcriber"
)

type Options struct {
	Language string // "" or "auto" lets the model detect it
	BeamSize int
	Threads  int
}

// Engine holds one loaded model. Calls to Transcribe are serialized.
type Engine struct {
	name  string
	model whisper.Model
	opts  Options
	mu    sync.Mutex
}

// Load reads the ggml model at path.
func Load(path, name string, opts Options) (*Engine, error) {
	model, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading model %q: %w", path, err)
	}
	if opts.Threads <= 0 {
		opts.Threads = min(runtime.NumCPU(), 8)
	}
	return &Engine{name: name, model: model, opts: opts}, nil
}

func (e *Engine) Name() string { return "whisper/" + e.name }

func (e *Engine) Close() error {
	return e.model.Close()
}

func (e *Engine) Transcribe(ctx context.Context, samples []float32, sampleRate int) (transcriber.Result, error) {
	if sampleRate != whisper.SampleRate {
		return transcriber.Result{}, fmt.Errorf("whisper needs %d Hz audio, got %d", whisper.SampleRate, sampleRate)
	}
	if err := ctx.Err(); err != nil {
		return transcriber.Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	wctx, err := e.model.NewContext()
	if err != nil {
		return transcriber.Result{}, fmt.Errorf("creating context: %w", err)
	}
	if e.opts.Language != "" && e.model.IsMultilingual() {
		if err := wctx.SetLanguage(e.opts.Language); err != nil {
			log.Warnf("whisper language %q: %v", e.opts.Language, err)
		}
	}
	if e.opts.BeamSize > 0 {
		wctx.SetBeamSize(e.opts.BeamSize)
	}
	wctx.SetThreads(uint(e.opts.Threads))

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return transcriber.Result{}, fmt.Errorf("process: %w", err)
	}

	var res transcriber.Result
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return transcriber.Result{}, fmt.Errorf("next segment: %w", err)
		}
		res.Segments = append(res.Segments, transcriber.Segment{
			Text:  seg.Text,
			Start: seg.Start,
			End:   seg.End,
		})
	}
	res.Text = transcriber.JoinSegments(res.Segments)
	return res, nil
}
