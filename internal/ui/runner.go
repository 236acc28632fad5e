package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives the arena until the user quits and returns what happened.
// The session is always left before returning.
func Run(ctx context.Context, opts Options) (Summary, error) {
	model := NewModel(ctx, opts)
	defer opts.Coordinator.Leave()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return model.Summary(), fmt.Errorf("arena: %w", err)
	}

	if m, ok := final.(*Model); ok {
		return m.Summary(), nil
	}
	return model.Summary(), nil
}
