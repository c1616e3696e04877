//go:build !linux

package beep

import (
	"bytes"
	"sync"
	"time"

	"dictator/audio"
	"dictator/log"

	"github.com/ebitengine/oto/v3"
)

var (
	otoCtx      *oto.Context
	startBuffer []byte
	endBuffer   []byte
	errorBuffer []byte
	soundOnce   sync.Once
)

func initSound() {
	var err error
	var ready chan struct{}
	otoCtx, ready, err = oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		log.Errorf("oto init error: %v", err)
		return
	}
	<-ready

	startBuffer = audio.EncodeS16(generateTick(startFreq, startDuration, startVolume, startDecay))
	endBuffer = audio.EncodeS16(generateTick(endFreq, endDuration, endVolume, endDecay))
	errorBuffer = audio.EncodeS16(generateDoubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay))
}

func play(buf []byte) {
	if otoCtx == nil || len(buf) == 0 {
		return
	}
	player := otoCtx.NewPlayer(bytes.NewReader(buf))
	player.Play()
	go func() {
		for player.IsPlaying() {
			time.Sleep(5 * time.Millisecond)
		}
		player.Close()
	}()
}

func Init() {
	soundOnce.Do(initSound)
}

func PlayStart() {
	soundOnce.Do(initSound)
	play(startBuffer)
}

func PlayEnd() {
	soundOnce.Do(initSound)
	play(endBuffer)
}

func PlayError() {
	soundOnce.Do(initSound)
	play(errorBuffer)
}
