// Package tui renders a countdown in the terminal and forwards key presses to
// it as intents.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sarchlab/countdown/countdown"
)

// Controller receives the intents of the user.
type Controller interface {
	Start()
	Stop()
	Reset()
	Adjust(unit countdown.Unit, delta int) error
}

type snapshotMsg countdown.Snapshot

type closedMsg struct{}

var (
	digitStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	selectedStyle = digitStyle.
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("212"))
	runningStyle = digitStyle.Foreground(lipgloss.Color("42"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var units = []countdown.Unit{countdown.Hour, countdown.Minute, countdown.Second}

// Model is the Bubble Tea model of the countdown screen. It only shows what
// it receives from the updates channel; key presses go to the controller.
type Model struct {
	ctrl     Controller
	updates  <-chan countdown.Snapshot
	snapshot countdown.Snapshot
	selected int
	err      error
	quitting bool
}

// New creates a Model that forwards intents to ctrl and renders every
// snapshot received from updates. The program quits when updates is closed.
func New(ctrl Controller, updates <-chan countdown.Snapshot) *Model {
	return &Model{
		ctrl:     ctrl,
		updates:  updates,
		selected: len(units) - 1,
	}
}

// Snapshot returns the snapshot currently shown.
func (m *Model) Snapshot() countdown.Snapshot {
	return m.snapshot
}

// Selected returns the unit that the arrow keys adjust.
func (m *Model) Selected() countdown.Unit {
	return units[m.selected]
}

// Init starts waiting for snapshots.
func (m *Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(updates <-chan countdown.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return closedMsg{}
		}

		return snapshotMsg(s)
	}
}

// Update handles snapshots and key presses.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snapshot = countdown.Snapshot(msg)
		return m, waitForSnapshot(m.updates)
	case closedMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	running := m.snapshot.Mode == countdown.Running

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "left", "h":
		m.selected = (m.selected + len(units) - 1) % len(units)
	case "right", "l":
		m.selected = (m.selected + 1) % len(units)
	case "up", "k":
		if !running {
			m.err = m.ctrl.Adjust(m.Selected(), 1)
		}
	case "down", "j":
		if !running {
			m.err = m.ctrl.Adjust(m.Selected(), -1)
		}
	case "enter", " ":
		if running {
			m.ctrl.Stop()
		} else {
			m.ctrl.Start()
		}
	case "r":
		if !running {
			m.ctrl.Reset()
		}
	}

	return m, nil
}

// View renders the countdown as HH:MM:SS.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	running := m.snapshot.Mode == countdown.Running

	fields := make([]string, len(units))
	for i, u := range units {
		style := digitStyle
		switch {
		case running:
			style = runningStyle
		case i == m.selected:
			style = selectedStyle
		}

		fields[i] = style.Render(Pad(m.snapshot.Field(u)))
	}

	b := new(strings.Builder)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		fields[0], ":", fields[1], ":", fields[2]))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	if running {
		b.WriteString(helpStyle.Render("enter: stop • q: quit"))
	} else {
		b.WriteString(helpStyle.Render(
			"←/→: select • ↑/↓: adjust • enter: start • r: reset • q: quit"))
	}

	b.WriteString("\n")

	return b.String()
}
