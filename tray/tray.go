// Package tray shows the dictation state as a system tray icon with a
// single Exit item.
package tray

import (
	"fmt"
	"sync"

	"fyne.io/systray"

	"dictator/presence"
)

const appName = "Local Whisper Dictator"

// surface is the part of the tray API the indicator drives.
type surface interface {
	SetIcon([]byte)
	SetTitle(string)
	SetTooltip(string)
	Quit()
}

type systraySurface struct{}

func (systraySurface) SetIcon(b []byte)    { systray.SetIcon(b) }
func (systraySurface) SetTitle(s string)   { systray.SetTitle(s) }
func (systraySurface) SetTooltip(s string) { systray.SetTooltip(s) }
func (systraySurface) Quit()               { systray.Quit() }

// Indicator is a presence.Sink backed by the system tray. Updates made
// before the tray is ready are held and applied once it is.
type Indicator struct {
	hotkey string
	surf   surface

	mu      sync.Mutex
	ready   bool
	pending presence.State

	exit     chan struct{}
	exitOnce sync.Once
}

func New(hotkeyLabel string) *Indicator {
	return &Indicator{
		hotkey: hotkeyLabel,
		surf:   systraySurface{},
		exit:   make(chan struct{}),
	}
}

// Title is the text shown for a state.
func (ind *Indicator) Title(s presence.State) string {
	switch s {
	case presence.Listening:
		return appName + " - LISTENING"
	case presence.Transcribing:
		return appName + " - TRANSCRIBING"
	}
	return fmt.Sprintf("%s (Hotkey: %s)", appName, ind.hotkey)
}

func (ind *Indicator) SetState(s presence.State) error {
	icon, ok := icons[s]
	if !ok {
		return fmt.Errorf("no icon for %s", s)
	}
	ind.mu.Lock()
	defer ind.mu.Unlock()
	ind.pending = s
	if !ind.ready {
		return nil
	}
	ind.apply(s, icon)
	return nil
}

func (ind *Indicator) apply(s presence.State, icon []byte) {
	ind.surf.SetIcon(icon)
	ind.surf.SetTitle(ind.Title(s))
	ind.surf.SetTooltip(ind.Title(s))
}

// Exit is closed when the user picks Exit from the menu.
func (ind *Indicator) Exit() <-chan struct{} { return ind.exit }

func (ind *Indicator) markReady() {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	ind.ready = true
	ind.apply(ind.pending, icons[ind.pending])
}

func (ind *Indicator) onReady() {
	ind.markReady()
	exitItem := systray.AddMenuItem("Exit", "Quit "+appName)
	go func() {
		<-exitItem.ClickedCh
		ind.exitOnce.Do(func() { close(ind.exit) })
	}()
}

// Run blocks on the tray event loop. It must be called from the main
// goroutine.
func (ind *Indicator) Run(onExit func()) {
	systray.Run(ind.onReady, onExit)
}

// Quit removes the icon and ends the tray loop. It does nothing before
// the tray is ready.
func (ind *Indicator) Quit() {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	if !ind.ready {
		return
	}
	ind.ready = false
	ind.surf.Quit()
}

// External is Run for programs that drive the platform event loop
// themselves. start must be called on that loop's thread.
func (ind *Indicator) External(onExit func()) (start, end func()) {
	return systray.RunWithExternalLoop(ind.onReady, onExit)
}
