package audio

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// SelectDevice presents an interactive picker on the terminal and returns
// the chosen device. With a single device it returns that one directly.
func SelectDevice(ctx Context, out io.Writer) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no capture devices found", ErrDeviceUnavailable)
	}
	if len(devices) == 1 {
		fmt.Fprintf(out, "Using device: %s\n", devices[0].Name)
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	render := func() {
		fmt.Fprint(out, "\r\x1b[J")
		fmt.Fprint(out, "Select input device (↑/↓, Enter to confirm):\r\n\r\n")
		for i, d := range devices {
			tag := ""
			if IsBluetooth(d.Name) {
				tag = " \x1b[33m[lower audio quality]\x1b[0m"
			}
			if i == cursor {
				fmt.Fprintf(out, "  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, tag)
			} else {
				fmt.Fprintf(out, "    %s%s\r\n", d.Name, tag)
			}
		}
	}
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		cursor = moveCursor(cursor, len(devices), buf[:n])
		switch {
		case n == 1 && buf[0] == 13: // Enter
			fmt.Fprint(out, "\r\n")
			return &devices[cursor], nil
		case n == 1 && (buf[0] == 3 || buf[0] == 'q'): // Ctrl+C
			fmt.Fprint(out, "\r\n")
			return nil, fmt.Errorf("device selection cancelled")
		}
		fmt.Fprintf(out, "\x1b[%dA", len(devices)+2)
		render()
	}
}

// moveCursor applies one key press (vim keys or arrow escape sequence).
func moveCursor(cursor, count int, key []byte) int {
	up := (len(key) == 1 && key[0] == 'k') || (len(key) == 3 && key[0] == 0x1b && key[1] == '[' && key[2] == 'A')
	down := (len(key) == 1 && key[0] == 'j') || (len(key) == 3 && key[0] == 0x1b && key[1] == '[' && key[2] == 'B')
	switch {
	case up && cursor > 0:
		return cursor - 1
	case down && cursor < count-1:
		return cursor + 1
	}
	return cursor
}
