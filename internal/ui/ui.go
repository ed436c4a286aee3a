package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run builds the coordinator model and blocks inside the terminal program
// until the user quits or the context is cancelled. Dirty caches are flushed
// once more on the way out.
func Run(opts Options) error {
	m := NewModel(opts)

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, progOpts...)

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Flush()
	}
	return err
}
