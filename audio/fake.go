package audio

import (
	"errors"
	"sync"
	"time"
)

const fakeChunk = 1024

// FakeContext replays fixed audio, either paced like a real device or as
// fast as possible. After the audio runs out it keeps delivering silence
// until stopped.
type FakeContext struct {
	samples    []int16
	sampleRate uint32
	realtime   bool

	// OpenErr, when set, makes NewCapture fail.
	OpenErr error

	mu   sync.Mutex
	last *FakeCapture
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	samples, rate, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return &FakeContext{samples: samples, sampleRate: rate, realtime: realtime}, nil
}

func NewFakeContextFromSamples(samples []int16, sampleRate uint32, realtime bool) *FakeContext {
	return &FakeContext{samples: samples, sampleRate: sampleRate, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "Fake Microphone"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	rate := config.SampleRate
	if rate == 0 {
		rate = f.sampleRate
	}
	c := &FakeCapture{
		samples:   f.samples,
		rate:      rate,
		realtime:  f.realtime,
		audioDone: make(chan struct{}),
	}
	f.mu.Lock()
	f.last = c
	f.mu.Unlock()
	return c, nil
}

// LastCapture returns the most recently created capture, or nil.
func (f *FakeContext) LastCapture() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type FakeCapture struct {
	samples   []int16
	rate      uint32
	realtime  bool
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	started  bool
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once every sample of the source has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return errors.New("fake capture already started")
	}
	f.started = true
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	f.mu.Unlock()

	interval := time.Millisecond
	if f.realtime && f.rate > 0 {
		interval = time.Duration(fakeChunk) * time.Second / time.Duration(f.rate)
	}

	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]byte, fakeChunk*2)
		finished := false
		for {
			select {
			case <-f.stopCh:
				return
			default:
			}

			if cb := f.callback(); cb != nil {
				if pos < len(f.samples) {
					end := min(pos+fakeChunk, len(f.samples))
					cb(EncodeS16(f.samples[pos:end]), uint32(end-pos))
					pos = end
				} else {
					if !finished {
						finished = true
						close(f.audioDone)
					}
					cb(silence, fakeChunk)
				}
			}

			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()
	return nil
}

// Stop waits for the feeding goroutine, so no callback runs after it returns.
func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stopCh, feedDone := f.stopCh, f.feedDone
	f.mu.Unlock()
	if stopCh == nil {
		return
	}
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	<-feedDone
}

func (f *FakeCapture) Close() {}
