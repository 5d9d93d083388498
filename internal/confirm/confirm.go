// Package confirm is the interactive prompt driver spec.md's intro
// names as an external collaborator: something that, given a message,
// returns a boolean answer. The Planner is parameterized on Confirmer
// so plan-building logic never talks to a terminal directly.
package confirm

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Confirmer answers an x-prompt question with a boolean.
type Confirmer interface {
	Confirm(msg string) (bool, error)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

var errUnavailable = fmt.Errorf("confirm: no terminal available")

// confirmModel is a bubbletea model presenting a Yes/No toggle,
// adapted from the interactive git-workspace confirm prompt: title +
// Yes/No toggle, y/n and arrow-key handling, ctrl+c/esc to abort.
type confirmModel struct {
	title   string
	value   bool
	done    bool
	aborted bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		case "y", "Y":
			m.value = true
			m.done = true
			return m, tea.Quit
		case "n", "N":
			m.value = false
			m.done = true
			return m, tea.Quit
		case "left", "right", "tab", "h", "l":
			m.value = !m.value
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	yes := " Yes "
	no := " No "
	if m.value {
		yes = selectedStyle.Render(" Yes ")
	} else {
		no = selectedStyle.Render(" No ")
	}
	return fmt.Sprintf("%s %s / %s\n", titleStyle.Render(strings.TrimSpace(m.title)), yes, no)
}

// RealConfirmer drives the bubbletea confirm dialog against the
// attached terminal.
type RealConfirmer struct{}

// NewRealConfirmer creates a RealConfirmer.
func NewRealConfirmer() *RealConfirmer {
	return &RealConfirmer{}
}

// Confirm presents msg as a Yes/No prompt and returns the user's answer.
func (c *RealConfirmer) Confirm(msg string) (bool, error) {
	m := confirmModel{title: msg}
	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return false, err
	}
	rm := result.(confirmModel)
	if rm.aborted {
		return false, fmt.Errorf("prompt aborted")
	}
	return rm.value, nil
}

// FakeConfirmer returns a scripted sequence of answers, recording
// every message it was asked, for deterministic planner tests.
type FakeConfirmer struct {
	Answers []bool
	Err     error

	Calls []string
	next  int
}

// NewFakeConfirmer creates a FakeConfirmer that answers with answers in order.
func NewFakeConfirmer(answers ...bool) *FakeConfirmer {
	return &FakeConfirmer{Answers: answers}
}

// Confirm returns the next scripted answer, defaulting to false once
// the script is exhausted.
func (f *FakeConfirmer) Confirm(msg string) (bool, error) {
	f.Calls = append(f.Calls, msg)
	if f.Err != nil {
		return false, f.Err
	}
	if f.next >= len(f.Answers) {
		return false, nil
	}
	answer := f.Answers[f.next]
	f.next++
	return answer, nil
}
