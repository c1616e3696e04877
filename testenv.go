package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dictator/audio"
	"dictator/dictation"
	"dictator/hotkey"
	"dictator/log"
)

// sessionWaiter lets the scripted test mode block until a dictation
// finishes.
type sessionWaiter struct {
	done chan dictation.Summary
}

func newSessionWaiter() *sessionWaiter {
	return &sessionWaiter{done: make(chan dictation.Summary, 16)}
}

func (w *sessionWaiter) SessionStarted(string) {}
func (w *sessionWaiter) SessionBusy()          { fmt.Println("BUSY") }

func (w *sessionWaiter) SessionFinished(s dictation.Summary) {
	select {
	case w.done <- s:
	default:
	}
}

// runTestMode drives the controller from stdin commands: KEYDOWN, KEYUP,
// WAIT (next finished session), WAIT_AUDIO_DONE (WAV fully played),
// SLEEP <ms> and QUIT.
func runTestMode(ctrl *dictation.Controller, fake *audio.FakeContext, waiter *sessionWaiter) {
	hk := hotkey.NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx, hk)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "KEYDOWN":
			hk.SimKeydown()
		case "KEYUP":
			hk.SimKeyup()
		case "WAIT":
			s := <-waiter.done
			fmt.Printf("DONE: frames=%d typed=%t\n", s.Frames, s.Typed)
		case "WAIT_AUDIO_DONE":
			var capture *audio.FakeCapture
			for capture == nil {
				capture = fake.LastCapture()
				time.Sleep(time.Millisecond)
			}
			<-capture.AudioDone()
		case "QUIT":
			exit(0)
		case "":
		default:
			if ms, ok := strings.CutPrefix(cmd, "SLEEP "); ok {
				if n, err := strconv.Atoi(ms); err == nil {
					time.Sleep(time.Duration(n) * time.Millisecond)
				}
				continue
			}
			log.Warnf("unknown test command %q", cmd)
		}
	}
	exit(0)
}
