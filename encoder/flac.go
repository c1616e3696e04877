// Package encoder compresses recorded PCM for upload to remote engines.
package encoder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	bitsPerSample = 16
	blockSize     = 4096
)

// FLACWriter streams mono s16 audio as verbatim FLAC frames of at most
// blockSize samples.
type FLACWriter struct {
	enc     *flac.Encoder
	rate    uint32
	pending []int16
	written uint64
}

func NewFLACWriter(w io.Writer, sampleRate uint32) (*FLACWriter, error) {
	enc, err := flac.NewEncoder(w, &meta.StreamInfo{
		BlockSizeMin:  blockSize,
		BlockSizeMax:  blockSize,
		SampleRate:    sampleRate,
		NChannels:     1,
		BitsPerSample: bitsPerSample,
	})
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	return &FLACWriter{enc: enc, rate: sampleRate}, nil
}

// Write buffers samples and emits every full block.
func (fw *FLACWriter) Write(samples []int16) error {
	fw.pending = append(fw.pending, samples...)
	for len(fw.pending) >= blockSize {
		if err := fw.frame(fw.pending[:blockSize]); err != nil {
			return err
		}
		fw.pending = fw.pending[blockSize:]
	}
	return nil
}

// Close flushes the short final block and finalizes the stream header.
func (fw *FLACWriter) Close() error {
	if len(fw.pending) > 0 {
		if err := fw.frame(fw.pending); err != nil {
			return err
		}
		fw.pending = nil
	}
	return fw.enc.Close()
}

// Samples reports how many samples have been encoded into frames.
func (fw *FLACWriter) Samples() uint64 { return fw.written }

func (fw *FLACWriter) frame(block []int16) error {
	wide := make([]int32, len(block))
	for i, s := range block {
		wide[i] = int32(s)
	}
	err := fw.enc.WriteFrame(&frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    fw.rate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: bitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   wide,
			NSamples:  len(block),
		}},
	})
	if err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	fw.written += uint64(len(block))
	return nil
}

// EncodeFLAC compresses mono s16 samples into a complete FLAC stream.
func EncodeFLAC(samples []int16, sampleRate uint32) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := NewFLACWriter(&buf, sampleRate)
	if err != nil {
		return nil, err
	}
	if err := fw.Write(samples); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
