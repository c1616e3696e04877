package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"

	"dictator/presence"
)

const iconSize = 64

var (
	colorIdle         = color.RGBA{R: 60, G: 179, B: 113, A: 255}
	colorListening    = color.RGBA{R: 255, A: 255}
	colorTranscribing = color.RGBA{B: 255, A: 255}
)

var pngIcons = map[presence.State][]byte{
	presence.Idle:         renderIcon(colorIdle),
	presence.Listening:    renderIcon(colorListening),
	presence.Transcribing: renderIcon(colorTranscribing),
}

// icons holds the bytes handed to the tray, in the format the platform's
// tray expects.
var icons = func() map[presence.State][]byte {
	out := make(map[presence.State][]byte, len(pngIcons))
	for s, b := range pngIcons {
		out[s] = platformIcon(b)
	}
	return out
}()

// renderIcon draws a filled circle inscribed in the middle half of a
// transparent square.
func renderIcon(fill color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	lo, hi := iconSize/4, iconSize*3/4
	c := float64(iconSize) / 2
	r := float64(hi-lo) / 2
	for y := lo; y < hi; y++ {
		for x := lo; x < hi; x++ {
			dx, dy := float64(x)+0.5-c, float64(y)+0.5-c
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, fill)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("tray icon: " + err.Error())
	}
	return buf.Bytes()
}

// wrapICO packs a single PNG image into an .ico container: a 6 byte
// ICONDIR followed by one 16 byte ICONDIRENTRY pointing just past itself.
func wrapICO(pngData []byte, size int) []byte {
	const headerLen = 6 + 16
	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	out := make([]byte, headerLen, headerLen+len(pngData))
	binary.LittleEndian.PutUint16(out[0:], 0) // reserved
	binary.LittleEndian.PutUint16(out[2:], 1) // icon
	binary.LittleEndian.PutUint16(out[4:], 1) // one image
	out[6], out[7] = dim, dim
	binary.LittleEndian.PutUint16(out[10:], 1)  // planes
	binary.LittleEndian.PutUint16(out[12:], 32) // bits per pixel
	binary.LittleEndian.PutUint32(out[14:], uint32(len(pngData)))
	binary.LittleEndian.PutUint32(out[18:], headerLen)
	return append(out, pngData...)
}
