package usage

import (
	"context"
	"fmt"
	"io"
)

// Device is one entry of the monthly tally. A device whose AutoFetch
// returns true for the current platform is this machine, and its counters
// can be read directly.
type Device struct {
	Name      string
	Tip       string
	AutoFetch func(Platform) bool
}

var Devices = []Device{
	{Name: "Windows PC", AutoFetch: Platform.IsWindows},
	{Name: "Fedora PC", AutoFetch: Platform.IsFedora},
	{Name: "iPhone 11 Pro", Tip: "Settings > Cellular > Current Period (scroll to bottom)."},
	{Name: "Samsung S8", Tip: "Settings > Connections > Data Usage > Mobile data usage."},
}

type Entry struct {
	Device string
	MB     float64
	Auto   bool
}

type Report struct {
	Entries []Entry
}

func (r Report) TotalMB() float64 {
	var t float64
	for _, e := range r.Entries {
		t += e.MB
	}
	return t
}

// Calculator walks the device list, asking for each value.
type Calculator struct {
	Prompt   *Prompter
	Counter  Counter // nil disables auto-fetch
	Platform Platform
	Out      io.Writer
}

func (c *Calculator) Run(ctx context.Context, devices []Device) (Report, error) {
	var r Report
	for _, d := range devices {
		e, err := c.entry(ctx, d)
		if err != nil {
			return r, fmt.Errorf("%s: %w", d.Name, err)
		}
		r.Entries = append(r.Entries, e)
	}
	return r, nil
}

func (c *Calculator) entry(ctx context.Context, d Device) (Entry, error) {
	local := c.Counter != nil && d.AutoFetch != nil && d.AutoFetch(c.Platform)
	if local {
		fmt.Fprintf(c.Out, "\n--- %s (this machine) ---\n", d.Name)
		fmt.Fprintln(c.Out, "Auto-fetch gives total data since last boot.")
		yes, err := c.Prompt.Confirm("Use auto-fetch (y) or manual entry (n)?")
		if err != nil {
			return Entry{}, err
		}
		if yes {
			b, err := c.Counter.BytesSinceBoot(ctx)
			if err == nil {
				mb := BytesToMB(b)
				fmt.Fprintf(c.Out, "Auto-fetched: %.2f MB (%.2f GB) since boot.\n", mb, mb/GB)
				return Entry{Device: d.Name, MB: mb, Auto: true}, nil
			}
			fmt.Fprintf(c.Out, "Auto-fetch failed: %v\n", err)
			fmt.Fprintln(c.Out, "Falling back to manual entry.")
		}
	} else if d.Tip != "" {
		fmt.Fprintf(c.Out, "\n--- %s ---\n", d.Name)
		fmt.Fprintf(c.Out, "Tip: %s\n", d.Tip)
	}
	mb, err := c.Prompt.Size(d.Name)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Device: d.Name, MB: mb}, nil
}
