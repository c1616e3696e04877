package usage

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/net"
)

// Counter reports bytes sent plus received on this machine since boot.
type Counter interface {
	BytesSinceBoot(ctx context.Context) (uint64, error)
}

type SystemCounter struct{}

func (SystemCounter) BytesSinceBoot(ctx context.Context) (uint64, error) {
	stats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("reading network counters: %w", err)
	}
	if len(stats) == 0 {
		return 0, fmt.Errorf("reading network counters: no interfaces")
	}
	return stats[0].BytesSent + stats[0].BytesRecv, nil
}

// Platform identifies the machine the calculator runs on.
type Platform struct {
	OS     string // "windows", "linux", ...
	Distro string // "fedora", "ubuntu", ... on linux
}

func (p Platform) IsWindows() bool { return p.OS == "windows" }

func (p Platform) IsFedora() bool {
	return p.OS == "linux" && strings.Contains(strings.ToLower(p.Distro), "fedora")
}

func DetectPlatform(ctx context.Context) (Platform, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return Platform{}, fmt.Errorf("detecting platform: %w", err)
	}
	return Platform{OS: info.OS, Distro: info.Platform}, nil
}
