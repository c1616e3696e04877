package usage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks questions on out and reads answers line by line from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// Size asks for the usage of device until the answer parses. An empty
// answer counts as zero.
func (p *Prompter) Size(device string) (float64, error) {
	for {
		fmt.Fprintf(p.out, "Enter data used by %s (e.g., '15 GB', '500 MB'): ", device)
		s, err := p.line()
		if err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		mb, err := ParseSize(s)
		if err == nil {
			return mb, nil
		}
		fmt.Fprintf(p.out, "Invalid input: %v. Try again.\n", err)
	}
}

// Confirm asks a yes/no question. Only "y" or "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s (y/n): ", question)
	s, err := p.line()
	if err != nil {
		return false, err
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes", nil
}
