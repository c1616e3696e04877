//go:build !linux

package clipboard

import (
	"runtime"

	"github.com/go-vgo/robotgo"
)

func Init() error { return nil }

// Paste sends Cmd+V on macOS and Ctrl+V elsewhere.
func Paste() error {
	mod := "ctrl"
	if runtime.GOOS == "darwin" {
		mod = "cmd"
	}
	return robotgo.KeyTap("v", mod)
}
