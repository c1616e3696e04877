package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrDeviceUnavailable is returned when a capture stream cannot be opened.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives interleaved little-endian s16 PCM from a backend.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	// FrameSize is the number of mono samples per frame handed to the recorder's consumer.
	FrameSize int
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

// FindDevice resolves a selector against the available devices. An empty
// selector means the system default and yields nil. Otherwise the selector
// matches a device ID exactly, or a case-insensitive substring of its name.
func FindDevice(ctx Context, selector string) (*DeviceInfo, error) {
	if selector == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i := range devices {
		if devices[i].ID == selector {
			return &devices[i], nil
		}
	}
	want := strings.ToLower(selector)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), want) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no device matches %q", ErrDeviceUnavailable, selector)
}

// DecodeS16 converts interleaved little-endian s16 bytes to mono samples,
// averaging channels when there is more than one.
func DecodeS16(data []byte, channels uint32) []int16 {
	if channels == 0 {
		channels = 1
	}
	n := len(data) / 2 / int(channels)
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		var sum int32
		for ch := 0; ch < int(channels); ch++ {
			off := (i*int(channels) + ch) * 2
			sum += int32(int16(binary.LittleEndian.Uint16(data[off:])))
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}

// EncodeS16 is the inverse of DecodeS16 for mono audio.
func EncodeS16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Normalize maps s16 samples onto [-1, 1).
func Normalize(frames [][]int16) []float32 {
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	out := make([]float32, 0, total)
	for _, f := range frames {
		for _, s := range f {
			out = append(out, float32(s)/32768.0)
		}
	}
	return out
}

// Denormalize is the inverse of Normalize, clamping out-of-range values.
func Denormalize(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		x := v * 32768.0
		switch {
		case x > 32767:
			x = 32767
		case x < -32768:
			x = -32768
		}
		out[i] = int16(x)
	}
	return out
}
