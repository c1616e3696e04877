package audio

import (
	"fmt"
	"sync"
)

// FrameFunc receives one frame of mono samples. It is called from the
// capture goroutine, never concurrently with itself for a given stream.
type FrameFunc func(frame []int16)

// Stream is an open capture. Close stops delivery and releases the device.
type Stream interface {
	Close() error
}

// Recorder opens capture streams on a fixed device and configuration.
type Recorder struct {
	ctx    Context
	config CaptureConfig
	device *DeviceInfo
}

func NewRecorder(ctx Context, config CaptureConfig, device *DeviceInfo) *Recorder {
	if config.FrameSize <= 0 {
		config.FrameSize = 1024
	}
	if config.Channels == 0 {
		config.Channels = 1
	}
	return &Recorder{ctx: ctx, config: config, device: device}
}

func (r *Recorder) DeviceName() string {
	if r.device != nil {
		return r.device.Name
	}
	return "system default"
}

// Open starts a capture whose audio is re-chunked into FrameSize frames and
// passed to onFrame in arrival order.
func (r *Recorder) Open(onFrame FrameFunc) (Stream, error) {
	dev, err := r.ctx.NewCapture(r.device, r.config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s := &recordStream{
		dev:       dev,
		onFrame:   onFrame,
		channels:  r.config.Channels,
		frameSize: r.config.FrameSize,
	}
	dev.SetCallback(s.receive)
	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		dev.Close()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return s, nil
}

type recordStream struct {
	dev       CaptureDevice
	onFrame   FrameFunc
	channels  uint32
	frameSize int

	mu        sync.Mutex
	pending   []int16
	closed    bool
	closeOnce sync.Once
}

func (s *recordStream) receive(data []byte, _ uint32) {
	samples := DecodeS16(data, s.channels)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, samples...)
	for len(s.pending) >= s.frameSize {
		frame := make([]int16, s.frameSize)
		copy(frame, s.pending)
		s.pending = s.pending[s.frameSize:]
		s.onFrame(frame)
	}
}

// Close flushes a trailing partial frame, so every sample delivered before
// Close reaches the consumer exactly once.
func (s *recordStream) Close() error {
	s.closeOnce.Do(func() {
		s.dev.Stop()

		s.mu.Lock()
		if len(s.pending) > 0 {
			frame := make([]int16, len(s.pending))
			copy(frame, s.pending)
			s.pending = nil
			s.onFrame(frame)
		}
		s.closed = true
		s.mu.Unlock()

		s.dev.ClearCallback()
		s.dev.Close()
	})
	return nil
}
