package encoder

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/mewkiz/flac"
)

func sine(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return out
}

func TestEncodeFLACDecodes(t *testing.T) {
	src := sine(10000) // spans a partial final block
	data, err := EncodeFLAC(src, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if stream.Info.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", stream.Info.SampleRate)
	}
	var got []int16
	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("frame: %v", err)
		}
		for _, s := range f.Subframes[0].Samples {
			got = append(got, int16(s))
		}
	}
	if len(got) != len(src) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(src))
	}
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], src[i])
		}
	}
}

func TestFLACWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	fw, err := NewFLACWriter(&buf, 16000)
	if err != nil {
		t.Fatalf("NewFLACWriter: %v", err)
	}
	if err := fw.Write(nil); err != nil {
		t.Fatal(err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fw.Samples() != 0 {
		t.Errorf("Samples = %d, want 0", fw.Samples())
	}
}

func TestFLACWriterBuffersPartialBlocks(t *testing.T) {
	var buf bytes.Buffer
	fw, err := NewFLACWriter(&buf, 16000)
	if err != nil {
		t.Fatal(err)
	}
	src := sine(blockSize + 100)
	if err := fw.Write(src[:100]); err != nil {
		t.Fatal(err)
	}
	if fw.Samples() != 0 {
		t.Fatalf("Samples = %d before a full block", fw.Samples())
	}
	if err := fw.Write(src[100:]); err != nil {
		t.Fatal(err)
	}
	if fw.Samples() != blockSize {
		t.Fatalf("Samples = %d, want %d", fw.Samples(), blockSize)
	}
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}
	if fw.Samples() != uint64(len(src)) {
		t.Errorf("Samples = %d after Close, want %d", fw.Samples(), len(src))
	}
}
