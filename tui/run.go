package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sarchlab/countdown/countdown"
)

// Run shows the countdown screen for store until the user quits or the store
// is closed.
func Run(store *countdown.Store, opts ...tea.ProgramOption) error {
	sub := store.Subscribe()
	defer sub.Unsubscribe()

	_, err := tea.NewProgram(New(store, sub.C()), opts...).Run()

	return err
}
