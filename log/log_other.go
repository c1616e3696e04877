//go:build !windows

package log

import (
	"os"
	"path/filepath"
	"runtime"
)

func getDefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "dictator"), nil
	}

	// Linux keeps logs next to the model cache
	return filepath.Join(home, ".local_whisper_dictator", "logs"), nil
}
