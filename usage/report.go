package usage

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const rule = 60

// Banner prints the calculator's introduction.
func Banner(w io.Writer) {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintln(w, title.Render("MONTHLY INTERNET DATA USAGE CALCULATOR"))
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintln(w, "\nThis tool sums data usage across your devices for a month.")
	fmt.Fprintln(w, "For mobile devices, you will need to look up the values manually.")
	fmt.Fprintln(w, "For the PC you're running this on, you can optionally auto-fetch")
	fmt.Fprintln(w, "cumulative usage since boot, but this is only accurate if you")
	fmt.Fprintln(w, "rebooted at the very start of the month.")
	fmt.Fprintln(w, strings.Repeat("-", rule))
}

// Totals returns the report's total formatted in MB and GB, plus TB once
// the total passes one terabyte.
func Totals(mb float64) []string {
	lines := []string{
		fmt.Sprintf("%.2f MB", mb),
		fmt.Sprintf("%.2f GB", mb/GB),
	}
	if mb > TB {
		lines = append(lines, fmt.Sprintf("%.2f TB", mb/TB))
	}
	return lines
}

func Render(w io.Writer, rep Report) {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	name := r.NewStyle().Width(16)
	auto := r.NewStyle().Faint(true)
	total := r.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))

	fmt.Fprintln(w, "\n"+strings.Repeat("=", rule))
	fmt.Fprintln(w, title.Render("TOTAL MONTHLY DATA USAGE (ALL DEVICES)"))
	fmt.Fprintln(w, strings.Repeat("=", rule))
	for _, e := range rep.Entries {
		line := name.Render(e.Device) + fmt.Sprintf("%12.2f MB", e.MB)
		if e.Auto {
			line += " " + auto.Render("(auto)")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, l := range Totals(rep.TotalMB()) {
		fmt.Fprintln(w, total.Render(l))
	}
}
