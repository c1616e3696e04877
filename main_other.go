//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"

	"dictator/tray"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	mainthread.Init(run)
}

// The system hotkey backend owns the main thread here, so the tray joins
// its event loop instead of starting its own.
func runTray(ind *tray.Indicator, onExit func()) {
	start, end := ind.External(onExit)
	mainthread.Call(start)
	defer end()
	select {}
}
