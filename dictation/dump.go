package dictation

import (
	"os"
	"path/filepath"

	"dictator/audio"
)

// WAVDump writes each session's audio to <Dir>/<id>.wav.
type WAVDump struct {
	Dir string
}

func (d WAVDump) WriteSession(id string, samples []int16, sampleRate int) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	return audio.WriteWAV(filepath.Join(d.Dir, id+".wav"), samples, uint32(sampleRate))
}
