// Package dictation owns the push-to-talk session: it records while the
// hotkey is held, transcribes on release and types the result.
package dictation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dictator/audio"
	"dictator/log"
	"dictator/presence"
	"dictator/transcriber"
)

type State int

const (
	Idle State = iota
	Recording
	Transcribing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// CaptureSource opens a microphone stream delivering frames to onFrame.
type CaptureSource interface {
	Open(onFrame audio.FrameFunc) (audio.Stream, error)
}

// HotkeySource reports chord engage and release edges.
type HotkeySource interface {
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

type Typist interface {
	Type(ctx context.Context, text string) error
}

// Observer is told about session boundaries. Calls happen outside the
// controller lock.
type Observer interface {
	SessionStarted(id string)
	SessionBusy()
	SessionFinished(Summary)
}

// AudioSink receives the raw samples of every finished session.
type AudioSink interface {
	WriteSession(id string, samples []int16, sampleRate int) error
}

// Summary describes one finished session.
type Summary struct {
	ID       string
	Frames   int
	Recorded time.Duration
	Result   transcriber.Result
	Err      error
	Typed    bool
	Elapsed  time.Duration
}

type Deps struct {
	Capture     CaptureSource
	Transcriber transcriber.Transcriber
	Typist      Typist
	Presence    presence.Sink
	Observer    Observer  // optional
	Dump        AudioSink // optional
}

type Options struct {
	SampleRate        int
	Device            string // for logging only
	TranscribeTimeout time.Duration
}

const defaultTranscribeTimeout = 2 * time.Minute

type job struct {
	gen      uint64
	id       string
	frames   [][]int16
	recorded time.Duration
	started  time.Time
}

// Controller serializes every state transition under one mutex. Capture
// callbacks, the hotkey loop and the transcription worker all go through
// it.
type Controller struct {
	deps Deps
	opts Options

	mu       sync.Mutex
	state    State
	gen      uint64
	id       string
	accept   bool
	frames   [][]int16
	stream   audio.Stream
	opening  bool
	released bool
	started  time.Time
	closed   bool

	jobs      chan job
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(deps Deps, opts Options) *Controller {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = defaultTranscribeTimeout
	}
	if deps.Presence == nil {
		deps.Presence = presence.Multi{}
	}
	deps.Presence = presence.Safe(deps.Presence)

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		deps:   deps,
		opts:   opts,
		jobs:   make(chan job, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	c.deps.Presence.SetState(presence.Idle)
	c.wg.Add(1)
	go c.work()
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run forwards hotkey edges to Engage and Release until ctx is done.
func (c *Controller) Run(ctx context.Context, hk HotkeySource) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
			c.Engage()
		case <-hk.Keyup():
			c.Release()
		}
	}
}

// Engage starts a recording session. It is a no-op while recording and
// is dropped while the previous session is still being transcribed.
func (c *Controller) Engage() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	switch c.state {
	case Recording:
		c.mu.Unlock()
		return
	case Transcribing:
		c.mu.Unlock()
		log.Info("busy: previous dictation still transcribing")
		if c.deps.Observer != nil {
			c.deps.Observer.SessionBusy()
		}
		return
	}

	c.gen++
	gen := c.gen
	c.id = uuid.NewString()
	c.frames = nil
	c.accept = true
	c.state = Recording
	c.opening = true
	c.released = false
	c.started = time.Now()
	id := c.id
	c.mu.Unlock()

	// Backends may invoke the frame callback while Open is still running,
	// so the lock is not held here.
	stream, err := c.deps.Capture.Open(func(f []int16) { c.appendFrame(gen, f) })

	c.mu.Lock()
	c.opening = false
	if err != nil || c.closed {
		c.accept = false
		c.frames = nil
		c.state = Idle
		c.mu.Unlock()
		if err != nil {
			log.Errorf("recording error: %v", err)
		} else {
			stream.Close()
		}
		return
	}
	c.stream = stream
	released := c.released
	c.deps.Presence.SetState(presence.Listening)
	c.mu.Unlock()

	log.Info("Starting recording...")
	log.SessionStart(id, c.engineName(), c.opts.Device)
	if c.deps.Observer != nil {
		c.deps.Observer.SessionStarted(id)
	}
	if released {
		c.Release()
	}
}

// Release stops the recording and queues it for transcription. It never
// blocks on the transcriber.
func (c *Controller) Release() {
	c.mu.Lock()
	if c.closed || c.state != Recording {
		c.mu.Unlock()
		return
	}
	if c.opening {
		c.released = true
		c.mu.Unlock()
		return
	}
	c.state = Transcribing
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	log.Info("Stopping recording...")
	// Close flushes trailing samples through the frame callback, which
	// needs the lock.
	if err := stream.Close(); err != nil {
		log.Warnf("closing capture: %v", err)
	}

	c.mu.Lock()
	c.accept = false
	j := job{
		gen:     c.gen,
		id:      c.id,
		frames:  c.frames,
		started: c.started,
	}
	j.recorded = time.Since(c.started)
	c.deps.Presence.SetState(presence.Transcribing)
	select {
	case c.jobs <- j:
	default:
		// Engage refuses to start while transcribing, so the queue is
		// always empty here.
		log.Error("transcription queue full, discarding recording")
		c.toIdle(j.gen)
	}
	c.mu.Unlock()
}

func (c *Controller) appendFrame(gen uint64, f []int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || !c.accept {
		return
	}
	c.frames = append(c.frames, f)
}

// toIdle must be called with mu held.
func (c *Controller) toIdle(gen uint64) {
	if gen != c.gen || c.state != Transcribing {
		return
	}
	c.frames = nil
	c.deps.Presence.SetState(presence.Idle)
	c.state = Idle
}

func (c *Controller) engineName() string {
	if c.deps.Transcriber == nil {
		return ""
	}
	return c.deps.Transcriber.Name()
}

func (c *Controller) work() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case j := <-c.jobs:
			c.process(j)
		}
	}
}

func (c *Controller) process(j job) {
	sum := Summary{ID: j.id, Frames: len(j.frames), Recorded: j.recorded}
	defer func() {
		if r := recover(); r != nil {
			sum.Err = fmt.Errorf("%w: panic: %v", transcriber.ErrTranscriptionFailed, r)
			log.Errorf("dictation worker: %v", sum.Err)
		}
		c.mu.Lock()
		c.toIdle(j.gen)
		c.mu.Unlock()

		sum.Elapsed = time.Since(j.started)
		outcome := "ok"
		switch {
		case sum.Err != nil:
			outcome = "error"
		case !sum.Typed:
			outcome = "empty"
		}
		log.SessionEnd(j.id, outcome, sum.Frames)
		if c.deps.Observer != nil {
			c.deps.Observer.SessionFinished(sum)
		}
	}()

	samples := flatten(j.frames)
	if c.deps.Dump != nil && len(samples) > 0 {
		if err := c.deps.Dump.WriteSession(j.id, samples, c.opts.SampleRate); err != nil {
			log.Warnf("saving session audio: %v", err)
		}
	}

	text := ""
	if len(j.frames) > 0 {
		res, err := c.transcribe(j.frames)
		sum.Result = res
		if err != nil {
			sum.Err = err
			log.Errorf("transcription error: %v", err)
		} else {
			text = res.Text
		}
	}
	log.Infof("Transcribed: '%s'", text)
	if text == "" {
		log.Info("no_speech")
		return
	}
	log.TranscriptionText(text)

	log.Infof("Typing: '%s'", text)
	sum.Typed = true
	if err := c.deps.Typist.Type(c.ctx, text); err != nil {
		log.Warnf("typing: %v", err)
	}
}

func (c *Controller) transcribe(frames [][]int16) (transcriber.Result, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.TranscribeTimeout)
	defer cancel()
	res, err := c.deps.Transcriber.Transcribe(ctx, audio.Normalize(frames), c.opts.SampleRate)
	if err != nil {
		return res, err
	}
	m := log.Metrics{
		AudioS:      res.AudioDuration.Seconds(),
		SpeechS:     res.SpeechDuration.Seconds(),
		Segments:    len(res.Segments),
		TotalTimeMs: float64(res.Elapsed.Milliseconds()),
	}
	if res.Network != nil {
		m.TTFBMs = float64(res.Network.TTFB.Milliseconds())
	}
	log.TranscriptionMetrics(m, c.engineName())
	return res, nil
}

// Close stops the worker and any open capture. In-flight transcription is
// cancelled.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		stream := c.stream
		c.stream = nil
		c.accept = false
		if c.state == Recording && !c.opening {
			c.state = Idle
		}
		c.mu.Unlock()
		if stream != nil {
			stream.Close()
		}
		c.cancel()
		c.wg.Wait()
	})
}

func flatten(frames [][]int16) []int16 {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]int16, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}

// Observers fans session events out to several observers.
type Observers []Observer

func (o Observers) SessionStarted(id string) {
	for _, ob := range o {
		ob.SessionStarted(id)
	}
}

func (o Observers) SessionBusy() {
	for _, ob := range o {
		ob.SessionBusy()
	}
}

func (o Observers) SessionFinished(s Summary) {
	for _, ob := range o {
		ob.SessionFinished(s)
	}
}
