//go:build !linux

package typist

import (
	"strings"
	"unicode"

	"github.com/go-vgo/robotgo"
)

type robotInjector struct {
	// runes robotgo typed as a whole on Press
	typed map[rune]bool
}

func NewInjector() (Injector, error) {
	return &robotInjector{typed: map[rune]bool{}}, nil
}

func keyName(r rune) (name string, shift bool, ok bool) {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return string(r), false, true
	case r >= 'A' && r <= 'Z':
		return string(unicode.ToLower(r)), true, true
	case r == ' ':
		return "space", false, true
	case r == '\n':
		return "enter", false, true
	case r == '\t':
		return "tab", false, true
	case strings.ContainsRune(".,/;'[]-=\\`", r):
		return string(r), false, true
	}
	return "", false, false
}

func (k *robotInjector) Press(r rune) error {
	name, shift, ok := keyName(r)
	if !ok {
		robotgo.TypeStr(string(r))
		k.typed[r] = true
		return nil
	}
	if shift {
		return robotgo.KeyToggle(name, "down", "shift")
	}
	return robotgo.KeyToggle(name, "down")
}

func (k *robotInjector) Release(r rune) error {
	if k.typed[r] {
		delete(k.typed, r)
		return nil
	}
	name, shift, _ := keyName(r)
	if shift {
		return robotgo.KeyToggle(name, "up", "shift")
	}
	return robotgo.KeyToggle(name, "up")
}
