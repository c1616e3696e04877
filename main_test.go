package main

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"dictator/dictation"
	"dictator/presence"
	"dictator/transcriber"
)

func TestWrapText(t *testing.T) {
	got := wrapText("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wrapText = %q, want %q", got, want)
	}
	if got := wrapText("", 10); !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("empty = %q", got)
	}
}

func TestTUIModelTracksState(t *testing.T) {
	var m tea.Model = tuiModel{hotkey: "Right Alt"}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = m.Update(stateMsg{state: presence.Listening, at: time.Now()})
	if !strings.Contains(m.View(), "LISTENING") {
		t.Error("view does not show listening")
	}

	m, _ = m.Update(sessionMsg{sum: dictation.Summary{Typed: true, Result: transcriber.Result{Text: "hello world"}}})
	m, _ = m.Update(stateMsg{state: presence.Idle, at: time.Now()})
	view := m.View()
	if !strings.Contains(view, "hello world") || !strings.Contains(view, "IDLE") {
		t.Errorf("view missing last dictation or idle status")
	}

	m, _ = m.Update(sessionMsg{sum: dictation.Summary{Err: errors.New("engine down")}})
	if !strings.Contains(m.View(), "engine down") {
		t.Error("view does not show error")
	}
}

func TestTUIModelQuits(t *testing.T) {
	_, cmd := tuiModel{}.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
}

func TestRenderEyeSize(t *testing.T) {
	for _, s := range []presence.State{presence.Idle, presence.Listening, presence.Transcribing} {
		lines := strings.Split(strings.TrimSuffix(renderEye(3, s), "\n"), "\n")
		if len(lines) != 15 {
			t.Errorf("%s: %d lines", s, len(lines))
		}
	}
}

func TestSessionWaiter(t *testing.T) {
	w := newSessionWaiter()
	w.SessionFinished(dictation.Summary{ID: "a", Frames: 3})
	select {
	case s := <-w.done:
		if s.ID != "a" {
			t.Errorf("id = %s", s.ID)
		}
	default:
		t.Fatal("no summary delivered")
	}
}
