//go:build linux

package main

import "dictator/tray"

func main() {
	run()
}

func runTray(ind *tray.Indicator, onExit func()) {
	ind.Run(onExit)
}
