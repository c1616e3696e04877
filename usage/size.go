// Package usage adds up a month of network data usage across devices.
package usage

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedSize is returned for input that is not a number optionally
// followed by MB, GB or TB.
var ErrMalformedSize = errors.New("malformed size")

const (
	MB = 1.0
	GB = 1024 * MB
	TB = 1024 * GB
)

var sizeRe = regexp.MustCompile(`^([\d.]+)\s*(MB|GB|TB)?$`)

// ParseSize converts "10 GB", "500mb", "1 TB" or a bare number (megabytes)
// into megabytes.
func ParseSize(s string) (float64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedSize, s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedSize, s)
	}
	switch m[2] {
	case "TB":
		return v * TB, nil
	case "GB":
		return v * GB, nil
	}
	return v * MB, nil
}

// BytesToMB converts a byte count into megabytes.
func BytesToMB(b uint64) float64 {
	return float64(b) / (1024 * 1024)
}
