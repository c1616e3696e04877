package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV loads a PCM WAV file as mono s16 samples.
func ReadWAV(path string) ([]int16, uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	channels := int(d.NumChans)
	if channels == 0 {
		channels = 1
	}
	shift := 0
	if d.BitDepth > 16 {
		shift = int(d.BitDepth) - 16
	}
	n := len(buf.Data) / channels
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch] >> shift
		}
		out[i] = int16(sum / channels)
	}
	return out, d.SampleRate, nil
}

// WriteWAV stores mono s16 samples as a 16-bit PCM WAV file.
func WriteWAV(path string, samples []int16, sampleRate uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, int(sampleRate), 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: int(sampleRate)},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return f.Close()
}
