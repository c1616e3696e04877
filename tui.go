package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dictator/dictation"
	"dictator/presence"
)

type stateMsg struct {
	state presence.State
	at    time.Time
}
type sessionMsg struct{ sum dictation.Summary }
type busyMsg struct{}
type tickMsg time.Time

// Eye palettes, inner ring first. Index 0 is background.
var eyePalettes = map[presence.State][]string{
	presence.Idle:         {"", "157", "121", "85", "72", "71", "65", "59", "236", "236"},
	presence.Listening:    {"", "226", "220", "208", "196", "160", "124", "88", "52", "236"},
	presence.Transcribing: {"", "195", "159", "117", "75", "33", "27", "19", "17", "236"},
}

var eyeStyles = map[presence.State][]lipgloss.Style{}

func init() {
	for state, colors := range eyePalettes {
		styles := make([]lipgloss.Style, len(colors)*len(colors))
		for fg := range colors {
			for bg := range colors {
				s := lipgloss.NewStyle()
				if colors[fg] != "" {
					s = s.Foreground(lipgloss.Color(colors[fg]))
				}
				if colors[bg] != "" {
					s = s.Background(lipgloss.Color(colors[bg]))
				}
				styles[fg*len(colors)+bg] = s
			}
		}
		eyeStyles[state] = styles
	}
}

type tuiModel struct {
	state         presence.State
	since         time.Time
	frame         int
	width, height int

	hotkey, engine, device string

	last  dictation.Summary
	count int
	busy  int
}

// tuiSink shows state in a full-screen terminal UI. Updates are queued so
// the controller never waits on the render loop.
type tuiSink struct {
	p     *tea.Program
	queue chan tea.Msg
}

func newTUI(hotkeyLabel, engine, device string) *tuiSink {
	m := tuiModel{hotkey: hotkeyLabel, engine: engine, device: device, since: time.Now()}
	t := &tuiSink{
		p:     tea.NewProgram(m, tea.WithAltScreen()),
		queue: make(chan tea.Msg, 64),
	}
	go func() {
		for msg := range t.queue {
			t.p.Send(msg)
		}
	}()
	return t
}

// Run blocks until the user quits with ctrl+c or q.
func (t *tuiSink) Run() error {
	_, err := t.p.Run()
	return err
}

func (t *tuiSink) post(msg tea.Msg) {
	select {
	case t.queue <- msg:
	default:
	}
}

func (t *tuiSink) SetState(s presence.State) error {
	t.post(stateMsg{state: s, at: time.Now()})
	return nil
}

func (t *tuiSink) SessionStarted(string)               {}
func (t *tuiSink) SessionBusy()                        { t.post(busyMsg{}) }
func (t *tuiSink) SessionFinished(s dictation.Summary) { t.post(sessionMsg{sum: s}) }

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case tickMsg:
		m.frame++
		return m, tuiTick()
	case stateMsg:
		m.state = msg.state
		m.since = msg.at
	case sessionMsg:
		m.count++
		m.last = msg.sum
	case busyMsg:
		m.busy++
	}
	return m, nil
}

func (m tuiModel) status(now time.Time) string {
	elapsed := now.Sub(m.since).Seconds()
	switch m.state {
	case presence.Listening:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).
			Render(fmt.Sprintf("● LISTENING %.1fs", elapsed))
	case presence.Transcribing:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true).
			Render(fmt.Sprintf("◌ TRANSCRIBING %.1fs", elapsed))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("71")).Render("○ IDLE")
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	const eyeWidth = 45
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	left := []string{renderEye(m.frame, m.state), m.status(time.Now())}
	left = append(left, dim.Render(fmt.Sprintf("%s | %s", m.engine, m.device)))
	if m.busy > 0 {
		left = append(left, dim.Render(fmt.Sprintf("%d press(es) ignored while busy", m.busy)))
	}
	left = append(left, "",
		lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true).Render(m.hotkey)+
			dim.Render(" hold to dictate, q to quit"),
		dim.Render("dictator "+version))

	width := max(m.width-eyeWidth-1, 20)
	var right strings.Builder
	if m.count == 0 {
		right.WriteString(dim.Render("No dictations yet"))
	} else {
		right.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("246")).
			Render(fmt.Sprintf("Last dictation (#%d)", m.count)) + "\n\n")
		text, color := m.last.Result.Text, "4"
		switch {
		case m.last.Err != nil:
			text, color = m.last.Err.Error(), "196"
		case !m.last.Typed:
			text, color = "(no speech)", "208"
		}
		for _, line := range wrapText(text, max(width-2, 10)) {
			right.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(line) + "\n")
		}
		right.WriteString("\n" + dim.Render(fmt.Sprintf("recorded %.1fs, finished in %dms",
			m.last.Recorded.Seconds(), m.last.Elapsed.Milliseconds())))
	}

	leftPanel := lipgloss.NewStyle().Width(eyeWidth - 1).Height(m.height).
		Render(strings.Join(left, "\n"))
	rightPanel := lipgloss.NewStyle().Width(width).Height(m.height).PaddingLeft(1).
		Render(right.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

// renderEye draws concentric rings that breathe with the frame counter,
// using half-block characters so each cell holds two vertical pixels.
func renderEye(frame int, state presence.State) string {
	const charsW, charsH = 44, 15
	const pixW, pixH = charsW, charsH * 2
	colors := eyePalettes[state]
	styles := eyeStyles[state]
	rings := len(colors) - 1

	speed, depth := 0.08, 0.4
	switch state {
	case presence.Listening:
		speed, depth = 0.20, 1.2
	case presence.Transcribing:
		speed, depth = 0.35, 0.8
	}
	breathe := math.Sin(float64(frame)*speed) * depth

	pixel := func(x, y int) int {
		dx := float64(x) - float64(pixW)/2
		dy := float64(y) - float64(pixH)/2
		dist := math.Sqrt(dx*dx + dy*dy)
		for i := 1; i <= rings; i++ {
			r := float64(i)*1.1 + breathe*float64(rings-i)/float64(rings)
			if dist < r {
				return i
			}
		}
		return 0
	}

	var b strings.Builder
	for cy := range charsH {
		for cx := range charsW {
			top, bot := pixel(cx, cy*2), pixel(cx, cy*2+1)
			switch {
			case top == 0 && bot == 0:
				b.WriteString(" ")
			case top == bot:
				b.WriteString(styles[top*len(colors)].Render("█"))
			case bot == 0:
				b.WriteString(styles[top*len(colors)].Render("▀"))
			case top == 0:
				b.WriteString(styles[bot*len(colors)].Render("▄"))
			default:
				b.WriteString(styles[top*len(colors)+bot].Render("▀"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		line := ""
		for _, w := range words {
			switch {
			case line == "":
				line = w
			case len([]rune(line))+1+len([]rune(w)) <= width:
				line += " " + w
			default:
				lines = append(lines, line)
				line = w
			}
		}
		lines = append(lines, line)
	}
	return lines
}
