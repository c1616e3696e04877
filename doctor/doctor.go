// Package doctor runs interactive checks of the hotkey, microphone,
// transcription engine, typing and clipboard.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"dictator/audio"
	"dictator/clipboard"
	"dictator/dictation"
	"dictator/hotkey"
	"dictator/shutdown"
	"dictator/transcriber"
)

const typingProbe = "dictator-doctor-test"

type Options struct {
	In  io.Reader
	Out io.Writer

	Hotkey      func() (hotkey.Hotkey, error)
	HotkeyLabel string

	Capture     dictation.CaptureSource
	SampleRate  int
	RecordFor   time.Duration
	Transcriber transcriber.Transcriber

	Typist dictation.Typist

	// Tick paces the countdowns before typing. Zero uses one second.
	Tick time.Duration
}

type doctor struct {
	opts Options
	in   *bufio.Reader
	out  io.Writer
}

// Run executes every check in order, stopping at the first failure, and
// returns an exit code (0 all pass, 1 any fail).
func Run(opts Options) int {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.RecordFor <= 0 {
		opts.RecordFor = 3 * time.Second
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	resetTerminal()
	shutdown.OnSignal(func(os.Signal) {
		fmt.Fprintln(opts.Out, "\nInterrupted")
		os.Exit(1)
	})

	d := &doctor{opts: opts, in: bufio.NewReader(opts.In), out: opts.Out}
	fmt.Fprintln(d.out, "dictator doctor - interactive system diagnostics")
	fmt.Fprintln(d.out, "================================================")

	checks := []func() bool{d.checkHotkey, d.checkMicAndTranscription, d.checkTyping, d.checkClipboard}
	allPass := true
	for _, check := range checks {
		if !check() {
			allPass = false
			break
		}
	}

	fmt.Fprintln(d.out)
	if allPass {
		fmt.Fprintln(d.out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(d.out, "Some checks failed. See details above.")
	return 1
}

func (d *doctor) confirm(question string) bool {
	fmt.Fprintf(d.out, "%s [y/n]: ", question)
	s, _ := d.in.ReadString('\n')
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

func (d *doctor) countdown(from int) {
	for i := from; i > 0; i-- {
		fmt.Fprintf(d.out, "  %d...\n", i)
		time.Sleep(d.opts.Tick)
	}
}

func (d *doctor) checkHotkey() bool {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "[1/4] Hotkey detection")
	if d.opts.Hotkey == nil {
		fmt.Fprintln(d.out, "  SKIP: no hotkey configured")
		return true
	}
	if msg, err := hotkey.Diagnose(); err != nil {
		fmt.Fprintf(d.out, "  FAIL: %v\n", err)
		return false
	} else if msg != "" {
		fmt.Fprintf(d.out, "  %s\n", msg)
	}

	hk, err := d.opts.Hotkey()
	if err != nil {
		fmt.Fprintf(d.out, "  FAIL: %v\n", err)
		return false
	}
	if err := hk.Register(); err != nil {
		fmt.Fprintf(d.out, "  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	fmt.Fprintf(d.out, "Press and release %s...\n", d.opts.HotkeyLabel)
	select {
	case <-hk.Keydown():
	case <-time.After(10 * time.Second):
		fmt.Fprintln(d.out, "  FAIL: timeout waiting for hotkey")
		return false
	}
	select {
	case <-hk.Keyup():
		fmt.Fprintln(d.out, "  PASS: hotkey press and release detected")
	case <-time.After(5 * time.Second):
		fmt.Fprintln(d.out, "  FAIL: hotkey release never seen")
		return false
	}
	resetTerminal()
	return true
}

func (d *doctor) checkMicAndTranscription() bool {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "[2/4] Microphone and transcription")
	if d.opts.Capture == nil || d.opts.Transcriber == nil {
		fmt.Fprintln(d.out, "  SKIP: no microphone or engine")
		return true
	}

	fmt.Fprintf(d.out, "Press Enter and speak for %.0f seconds...", d.opts.RecordFor.Seconds())
	d.in.ReadString('\n')

	frames, err := d.record()
	if err != nil {
		fmt.Fprintf(d.out, "  FAIL: recording error: %v\n", err)
		return false
	}
	if len(frames) == 0 {
		fmt.Fprintln(d.out, "  FAIL: no audio captured")
		return false
	}
	samples := audio.Normalize(frames)
	fmt.Fprintf(d.out, "  Recorded %.1fs, transcribing with %s...\n",
		float64(len(samples))/float64(d.opts.SampleRate), d.opts.Transcriber.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	res, err := d.opts.Transcriber.Transcribe(ctx, samples, d.opts.SampleRate)
	if err != nil {
		fmt.Fprintf(d.out, "  FAIL: transcription error: %v\n", err)
		return false
	}
	text := res.Text
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Fprintf(d.out, "\n  Transcribed text: %s\n\n", text)

	if d.confirm("Is this correct?") {
		fmt.Fprintln(d.out, "  PASS: transcription verified by user")
		return true
	}
	fmt.Fprintln(d.out, "  FAIL: transcription not confirmed")
	return false
}

func (d *doctor) record() ([][]int16, error) {
	var mu sync.Mutex
	var frames [][]int16
	stream, err := d.opts.Capture.Open(func(f []int16) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprint(d.out, "  Recording")
	ticker := time.NewTicker(500 * time.Millisecond)
	deadline := time.After(d.opts.RecordFor)
loop:
	for {
		select {
		case <-ticker.C:
			fmt.Fprint(d.out, ".")
		case <-deadline:
			break loop
		}
	}
	ticker.Stop()
	err = stream.Close()
	fmt.Fprintln(d.out, " done")

	mu.Lock()
	defer mu.Unlock()
	return frames, err
}

func (d *doctor) checkTyping() bool {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "[3/4] Typing into the focused window")
	if d.opts.Typist == nil {
		fmt.Fprintln(d.out, "  SKIP: no typist")
		return true
	}

	fmt.Fprintln(d.out, "Focus on a text editor window...")
	d.countdown(5)
	if err := d.opts.Typist.Type(context.Background(), typingProbe); err != nil {
		fmt.Fprintf(d.out, "  FAIL: typing failed: %v\n", err)
		return false
	}

	resetTerminal()
	fmt.Fprintln(d.out)
	if d.confirm(fmt.Sprintf("Did the text %q appear?", typingProbe)) {
		fmt.Fprintln(d.out, "  PASS: typing verified by user")
		return true
	}
	fmt.Fprintln(d.out, "  FAIL: typing not confirmed")
	return false
}

func (d *doctor) checkClipboard() bool {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "[4/4] Clipboard (used by -paste)")

	probe := fmt.Sprintf("dictator-doctor-%d", time.Now().UnixNano())
	type result struct {
		got   string
		err   error
		phase string
	}
	ch := make(chan result, 1)
	go func() {
		prev, _ := clipboard.Read()
		defer clipboard.Copy(prev)
		if err := clipboard.Copy(probe); err != nil {
			ch <- result{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- result{err: err, phase: "read"}
			return
		}
		ch <- result{got: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Fprintf(d.out, "  WARN: clipboard %s failed: %v (only -paste needs it)\n", res.phase, res.err)
			return true
		}
		if res.got != probe {
			fmt.Fprintf(d.out, "  FAIL: clipboard mismatch: wrote %q, got %q\n", probe, res.got)
			return false
		}
		fmt.Fprintln(d.out, "  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Fprintln(d.out, "  WARN: clipboard timed out (only -paste needs it)")
		return true
	}
}
