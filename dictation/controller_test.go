package dictation

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"dictator/audio"
	"dictator/hotkey"
	"dictator/presence"
	"dictator/transcriber"
	"dictator/typist"
)

type fakeStream struct {
	src    *fakeCapture
	closed bool
}

func (s *fakeStream) Close() error {
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.src.closes++
	}
	return nil
}

// fakeCapture hands frames to the controller only when the test feeds them.
type fakeCapture struct {
	mu      sync.Mutex
	openErr error
	opens   int
	closes  int
	sinks   []audio.FrameFunc

	// When hold is set, Open signals entered and waits for hold to close.
	hold    chan struct{}
	entered chan struct{}
}

func (f *fakeCapture) Open(onFrame audio.FrameFunc) (audio.Stream, error) {
	if f.hold != nil {
		close(f.entered)
		<-f.hold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.sinks = append(f.sinks, onFrame)
	return &fakeStream{src: f}, nil
}

// feed delivers frames to the callback of the nth opened stream.
func (f *fakeCapture) feed(n int, frames ...[]int16) {
	f.mu.Lock()
	fn := f.sinks[n]
	f.mu.Unlock()
	for _, fr := range frames {
		fn(fr)
	}
}

func (f *fakeCapture) counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

type fakeTypist struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeTypist) Type(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTypist) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeObserver struct {
	mu       sync.Mutex
	started  int
	busy     int
	finished []Summary
}

func (o *fakeObserver) SessionStarted(string) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *fakeObserver) SessionBusy() {
	o.mu.Lock()
	o.busy++
	o.mu.Unlock()
}

func (o *fakeObserver) SessionFinished(s Summary) {
	o.mu.Lock()
	o.finished = append(o.finished, s)
	o.mu.Unlock()
}

func (o *fakeObserver) summaries() []Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Summary(nil), o.finished...)
}

// gated blocks every transcription until open is closed.
type gated struct {
	open  chan struct{}
	calls chan struct{}
}

func (g *gated) Name() string { return "gated" }

func (g *gated) Transcribe(ctx context.Context, _ []float32, _ int) (transcriber.Result, error) {
	g.calls <- struct{}{}
	select {
	case <-g.open:
	case <-ctx.Done():
		return transcriber.Result{}, ctx.Err()
	}
	return transcriber.Result{Text: "done"}, nil
}

type rig struct {
	c    *Controller
	src  *fakeCapture
	tr   *transcriber.Fake
	ty   *fakeTypist
	pres *presence.Recorder
	obs  *fakeObserver
}

func newRig(t *testing.T, text string) *rig {
	t.Helper()
	r := &rig{
		src:  &fakeCapture{},
		tr:   transcriber.NewFake(text, nil),
		ty:   &fakeTypist{},
		pres: &presence.Recorder{},
		obs:  &fakeObserver{},
	}
	r.c = New(Deps{
		Capture:     r.src,
		Transcriber: r.tr,
		Typist:      r.ty,
		Presence:    r.pres,
		Observer:    r.obs,
	}, Options{SampleRate: 16000})
	t.Cleanup(r.c.Close)
	return r
}

func waitState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", c.State(), want)
}

func waitFinished(t *testing.T, o *fakeObserver, n int) []Summary {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := o.summaries(); len(s) >= n {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("sessions finished = %d, want %d", len(o.summaries()), n)
	return nil
}

func frame(v int16, n int) []int16 {
	f := make([]int16, n)
	for i := range f {
		f[i] = v
	}
	return f
}

func TestEngageWhileRecordingKeepsAccumulator(t *testing.T) {
	r := newRig(t, "ok")

	r.c.Engage()
	r.src.feed(0, frame(1, 4), frame(2, 4))
	for range 3 {
		r.c.Engage()
		if got := r.c.State(); got != Recording {
			t.Fatalf("state after repeated engage = %s", got)
		}
	}
	r.src.feed(0, frame(3, 4))
	if opens, _ := r.src.counts(); opens != 1 {
		t.Fatalf("opens = %d, want 1", opens)
	}

	r.c.Release()
	waitFinished(t, r.obs, 1)
	calls := r.tr.Calls()
	if len(calls) != 1 || len(calls[0]) != 12 {
		t.Fatalf("transcriber calls = %d (len %v), want one call of 12 samples", len(calls), calls)
	}
}

func TestReleaseWhileIdleIsNoop(t *testing.T) {
	r := newRig(t, "ok")

	for range 3 {
		r.c.Release()
	}
	time.Sleep(20 * time.Millisecond)
	if r.c.State() != Idle {
		t.Errorf("state = %s", r.c.State())
	}
	if n := len(r.tr.Calls()); n != 0 {
		t.Errorf("transcriber called %d times", n)
	}
	if n := len(r.ty.calls()); n != 0 {
		t.Errorf("typist called %d times", n)
	}
	if got := r.pres.States(); !reflect.DeepEqual(got, []presence.State{presence.Idle}) {
		t.Errorf("presence = %v", got)
	}
}

func TestNewSessionStartsEmpty(t *testing.T) {
	r := newRig(t, "ok")

	r.c.Engage()
	r.src.feed(0, frame(100, 8))
	r.c.Release()
	waitFinished(t, r.obs, 1)

	// Late frames from the first stream must not leak into the second.
	r.src.feed(0, frame(100, 8))
	r.c.Engage()
	r.src.feed(0, frame(100, 8))
	r.src.feed(1, frame(-200, 2))
	r.c.Release()
	waitFinished(t, r.obs, 2)

	calls := r.tr.Calls()
	if len(calls) != 2 {
		t.Fatalf("transcriber calls = %d", len(calls))
	}
	want := []float32{-200.0 / 32768, -200.0 / 32768}
	if !reflect.DeepEqual(calls[1], want) {
		t.Errorf("second session samples = %v, want %v", calls[1], want)
	}
}

func TestZeroFramesSkipsTranscriber(t *testing.T) {
	r := newRig(t, "should not be used")

	r.c.Engage()
	r.c.Release()
	sums := waitFinished(t, r.obs, 1)
	waitState(t, r.c, Idle)

	if n := len(r.tr.Calls()); n != 0 {
		t.Errorf("transcriber called %d times", n)
	}
	if n := len(r.ty.calls()); n != 0 {
		t.Errorf("typist called %d times", n)
	}
	if sums[0].Typed || sums[0].Frames != 0 {
		t.Errorf("summary = %+v", sums[0])
	}
}

func TestSilenceProducesNoTyping(t *testing.T) {
	r := newRig(t, "")

	r.c.Engage()
	r.src.feed(0, frame(0, 1024), frame(0, 1024), frame(0, 1024))
	r.c.Release()
	waitFinished(t, r.obs, 1)
	waitState(t, r.c, Idle)

	want := []presence.State{presence.Idle, presence.Listening, presence.Transcribing, presence.Idle}
	if got := r.pres.States(); !reflect.DeepEqual(got, want) {
		t.Errorf("presence = %v, want %v", got, want)
	}
	if n := len(r.ty.calls()); n != 0 {
		t.Errorf("typist called %d times", n)
	}
	if calls := r.tr.Calls(); len(calls) != 1 || len(calls[0]) != 3*1024 {
		t.Errorf("transcriber got %d calls", len(calls))
	}
}

type keyEvent struct {
	r    rune
	down bool
}

type recordingInjector struct {
	mu     sync.Mutex
	events []keyEvent
}

func (i *recordingInjector) Press(r rune) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = append(i.events, keyEvent{r, true})
	return nil
}

func (i *recordingInjector) Release(r rune) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = append(i.events, keyEvent{r, false})
	return nil
}

func TestSpeechIsTypedPerCharacter(t *testing.T) {
	inj := &recordingInjector{}
	obs := &fakeObserver{}
	capture := &fakeCapture{}
	c := New(Deps{
		Capture:     capture,
		Transcriber: transcriber.NewFake("hello world", nil),
		Typist:      typist.New(inj, 0),
		Presence:    &presence.Recorder{},
		Observer:    obs,
	}, Options{})
	defer c.Close()

	c.Engage()
	capture.feed(0, frame(8000, 1024), frame(-8000, 1024))
	c.Release()
	waitFinished(t, obs, 1)

	var want []keyEvent
	for _, r := range "hello world" {
		want = append(want, keyEvent{r, true}, keyEvent{r, false})
	}
	inj.mu.Lock()
	defer inj.mu.Unlock()
	if !reflect.DeepEqual(inj.events, want) {
		t.Errorf("events = %v, want %v", inj.events, want)
	}
}

func TestOpenFailureStaysIdle(t *testing.T) {
	r := newRig(t, "ok")
	r.src.openErr = audio.ErrDeviceUnavailable

	r.c.Engage()
	if got := r.c.State(); got != Idle {
		t.Errorf("state = %s", got)
	}
	for _, s := range r.pres.States() {
		if s == presence.Listening {
			t.Error("indicator switched to Listening after open failure")
		}
	}
	r.c.Release()
	if n := len(r.tr.Calls()); n != 0 {
		t.Errorf("transcriber called %d times", n)
	}
}

func TestEngageWhileTranscribingIsDropped(t *testing.T) {
	g := &gated{open: make(chan struct{}), calls: make(chan struct{}, 4)}
	capture := &fakeCapture{}
	obs := &fakeObserver{}
	ty := &fakeTypist{}
	c := New(Deps{
		Capture:     capture,
		Transcriber: g,
		Typist:      ty,
		Presence:    &presence.Recorder{},
		Observer:    obs,
	}, Options{})
	defer c.Close()

	c.Engage()
	capture.feed(0, frame(5, 16))
	c.Release()
	<-g.calls

	c.Engage()
	c.Release()
	if got := c.State(); got != Transcribing {
		t.Fatalf("state = %s, want transcribing", got)
	}
	if opens, _ := capture.counts(); opens != 1 {
		t.Fatalf("opens = %d, want 1", opens)
	}
	obs.mu.Lock()
	busy := obs.busy
	obs.mu.Unlock()
	if busy != 1 {
		t.Errorf("busy = %d, want 1", busy)
	}

	close(g.open)
	waitFinished(t, obs, 1)
	waitState(t, c, Idle)
	if got := ty.calls(); !reflect.DeepEqual(got, []string{"done"}) {
		t.Errorf("typed = %v", got)
	}

	c.Engage()
	if got := c.State(); got != Recording {
		t.Errorf("state after completion = %s, want recording", got)
	}
}

func TestTranscriptionErrorReturnsToIdle(t *testing.T) {
	r := newRig(t, "")
	r.tr.Err = errors.New("engine crashed")

	r.c.Engage()
	r.src.feed(0, frame(9, 32))
	r.c.Release()
	sums := waitFinished(t, r.obs, 1)
	waitState(t, r.c, Idle)

	if sums[0].Err == nil {
		t.Error("summary has no error")
	}
	if n := len(r.ty.calls()); n != 0 {
		t.Errorf("typist called %d times", n)
	}
	states := r.pres.States()
	if states[len(states)-1] != presence.Idle {
		t.Errorf("final presence = %s", states[len(states)-1])
	}
}

func TestPresenceFailureIsNotFatal(t *testing.T) {
	r := newRig(t, "hi")
	r.pres.Err = errors.New("tray gone")

	r.c.Engage()
	r.src.feed(0, frame(1, 8))
	r.c.Release()
	waitFinished(t, r.obs, 1)
	waitState(t, r.c, Idle)
	if got := r.ty.calls(); !reflect.DeepEqual(got, []string{"hi"}) {
		t.Errorf("typed = %v", got)
	}
}

func TestRunWithRecorder(t *testing.T) {
	samples := frame(1000, 4096)
	actx := audio.NewFakeContextFromSamples(samples, 16000, false)
	rec := audio.NewRecorder(actx, audio.CaptureConfig{SampleRate: 16000, Channels: 1}, nil)
	tr := transcriber.NewFake("from the mic", nil)
	ty := &fakeTypist{}
	obs := &fakeObserver{}
	dir := t.TempDir()

	c := New(Deps{
		Capture:     rec,
		Transcriber: tr,
		Typist:      ty,
		Presence:    &presence.Recorder{},
		Observer:    obs,
		Dump:        WAVDump{Dir: dir},
	}, Options{SampleRate: 16000})
	defer c.Close()

	hk := hotkey.NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, hk)

	hk.SimKeydown()
	waitState(t, c, Recording)
	var fc *audio.FakeCapture
	for fc == nil {
		fc = actx.LastCapture()
		time.Sleep(time.Millisecond)
	}
	select {
	case <-fc.AudioDone():
	case <-time.After(2 * time.Second):
		t.Fatal("fake capture never finished")
	}
	hk.SimKeyup()

	sums := waitFinished(t, obs, 1)
	calls := tr.Calls()
	if len(calls) != 1 || len(calls[0]) < len(samples) {
		t.Fatalf("transcriber calls = %d", len(calls))
	}
	if calls[0][0] != 1000.0/32768 {
		t.Errorf("first sample = %v", calls[0][0])
	}
	if got := ty.calls(); !reflect.DeepEqual(got, []string{"from the mic"}) {
		t.Errorf("typed = %v", got)
	}

	dumped, rate, err := audio.ReadWAV(filepath.Join(dir, sums[0].ID+".wav"))
	if err != nil {
		t.Fatal(err)
	}
	if rate != 16000 || len(dumped) != len(calls[0]) {
		t.Errorf("dump: rate %d, %d samples", rate, len(dumped))
	}
}

func TestReleaseAfterCloseIsNoop(t *testing.T) {
	r := newRig(t, "hello")
	r.c.Engage()
	r.c.Close()
	r.c.Release()

	if got := r.c.State(); got != Idle {
		t.Errorf("state = %s, want idle", got)
	}
	if _, closes := r.src.counts(); closes != 1 {
		t.Errorf("stream closed %d times, want 1", closes)
	}
	if got := r.tr.Calls(); len(got) != 0 {
		t.Errorf("transcriber called %d times after Close", len(got))
	}
}

func TestCloseDuringOpenClosesLateStream(t *testing.T) {
	r := newRig(t, "hello")
	r.src.hold = make(chan struct{})
	r.src.entered = make(chan struct{})

	engaged := make(chan struct{})
	go func() {
		r.c.Engage()
		close(engaged)
	}()
	<-r.src.entered

	closed := make(chan struct{})
	go func() {
		r.c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a pending Open")
	}
	close(r.src.hold)
	<-engaged

	if opens, closes := r.src.counts(); opens != 1 || closes != 1 {
		t.Errorf("opens=%d closes=%d, want 1 and 1", opens, closes)
	}
	if got := r.c.State(); got != Idle {
		t.Errorf("state = %s, want idle", got)
	}
	r.obs.mu.Lock()
	started := r.obs.started
	r.obs.mu.Unlock()
	if started != 0 {
		t.Errorf("%d sessions reported started", started)
	}
}
