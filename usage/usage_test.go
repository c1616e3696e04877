package usage

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"10 GB", 10240},
		{"500 MB", 500},
		{"1 TB", 1048576},
		{"42", 42},
		{"  1.5gb ", 1536},
		{"2tb", 2097152},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if err != nil {
			t.Errorf("ParseSize(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSizeMalformed(t *testing.T) {
	for _, in := range []string{"", "GB", "ten GB", "10 KB", "-5 MB", "1.2.3", "10 GB extra"} {
		if _, err := ParseSize(in); !errors.Is(err, ErrMalformedSize) {
			t.Errorf("ParseSize(%q) err = %v, want ErrMalformedSize", in, err)
		}
	}
}

func TestPrompterRetriesMalformed(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("lots\n10 KB\n2 GB\n"), &out)
	mb, err := p.Size("Samsung S8")
	if err != nil {
		t.Fatal(err)
	}
	if mb != 2048 {
		t.Errorf("mb = %v", mb)
	}
	if n := strings.Count(out.String(), "Invalid input"); n != 2 {
		t.Errorf("invalid hints = %d, want 2\n%s", n, out.String())
	}
}

func TestPrompterEmptyIsZero(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})
	mb, err := p.Size("x")
	if err != nil || mb != 0 {
		t.Errorf("Size = %v, %v", mb, err)
	}
}

func TestPrompterEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader("nope\n"), &bytes.Buffer{})
	if _, err := p.Size("x"); err == nil {
		t.Error("expected error at end of input")
	}
}

type fakeCounter struct {
	bytes uint64
	err   error
}

func (f fakeCounter) BytesSinceBoot(context.Context) (uint64, error) { return f.bytes, f.err }

func TestCalculatorAutoFetch(t *testing.T) {
	var out bytes.Buffer
	c := &Calculator{
		Prompt:   NewPrompter(strings.NewReader("1 GB\ny\n3 GB\n\n"), &out),
		Counter:  fakeCounter{bytes: 5 * 1024 * 1024 * 1024},
		Platform: Platform{OS: "linux", Distro: "fedora"},
		Out:      &out,
	}
	rep, err := c.Run(context.Background(), Devices)
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{
		{Device: "Windows PC", MB: 1024},
		{Device: "Fedora PC", MB: 5120, Auto: true},
		{Device: "iPhone 11 Pro", MB: 3072},
		{Device: "Samsung S8", MB: 0},
	}
	if !reflect.DeepEqual(rep.Entries, want) {
		t.Errorf("entries = %+v", rep.Entries)
	}
	if rep.TotalMB() != 9216 {
		t.Errorf("total = %v", rep.TotalMB())
	}
	if !strings.Contains(out.String(), "Settings > Cellular") {
		t.Error("iPhone tip not shown")
	}
}

func TestCalculatorAutoFetchFallsBack(t *testing.T) {
	var out bytes.Buffer
	c := &Calculator{
		Prompt:   NewPrompter(strings.NewReader("yes\n700\n"), &out),
		Counter:  fakeCounter{err: errors.New("no counters")},
		Platform: Platform{OS: "windows"},
		Out:      &out,
	}
	rep, err := c.Run(context.Background(), Devices[:1])
	if err != nil {
		t.Fatal(err)
	}
	if rep.Entries[0].MB != 700 || rep.Entries[0].Auto {
		t.Errorf("entry = %+v", rep.Entries[0])
	}
	if !strings.Contains(out.String(), "Falling back to manual entry.") {
		t.Error("no fallback notice")
	}
}

func TestPlatform(t *testing.T) {
	if !(Platform{OS: "linux", Distro: "Fedora"}).IsFedora() {
		t.Error("fedora not detected")
	}
	if (Platform{OS: "linux", Distro: "ubuntu"}).IsFedora() {
		t.Error("ubuntu detected as fedora")
	}
	if !(Platform{OS: "windows"}).IsWindows() {
		t.Error("windows not detected")
	}
}

func TestTotals(t *testing.T) {
	if got := Totals(2048); !reflect.DeepEqual(got, []string{"2048.00 MB", "2.00 GB"}) {
		t.Errorf("Totals(2048) = %v", got)
	}
	if got := Totals(TB); len(got) != 2 {
		t.Errorf("exactly one TB should not print TB: %v", got)
	}
	got := Totals(2 * TB)
	if len(got) != 3 || got[2] != "2.00 TB" {
		t.Errorf("Totals(2TB) = %v", got)
	}
}

func TestRender(t *testing.T) {
	var out bytes.Buffer
	Render(&out, Report{Entries: []Entry{{Device: "Samsung S8", MB: 512}}})
	s := out.String()
	for _, want := range []string{"TOTAL MONTHLY DATA USAGE", "Samsung S8", "512.00 MB", "0.50 GB"} {
		if !strings.Contains(s, want) {
			t.Errorf("report missing %q:\n%s", want, s)
		}
	}
}
