package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/robby/cwp/internal/tui"
)

// runTUI opens the interactive browser over the configured session.
func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, sessionOptions{Quiet: true})
	if err != nil {
		return err
	}

	model := tui.NewAppModel(s.tracker, ctx, s.cfg.RefreshInterval)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, runErr := p.Run()

	// Quitting saves from inside the UI; save again so an interrupted
	// session keeps its changes too.
	saveErr := s.commit()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("program error: %w", runErr)
	}
	if am, ok := final.(tui.AppModel); ok && am.Err() != nil {
		return am.Err()
	}
	return saveErr
}
