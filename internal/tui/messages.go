// Package tui provides the Bubble Tea models for the interactive mission list
// browser.
package tui

import (
	"github.com/robby/cwp/internal/domain"
)

// ErrorMsg is emitted when an operation fails badly enough to stop the UI.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// ListSelectedMsg is emitted when the user picks a list in the list picker.
type ListSelectedMsg struct {
	Name string
}

type (
	refreshTickMsg     struct{}
	refreshRequestMsg  struct{}
	registryChangedMsg struct{}

	// pulledMsg carries the result of a background source pull.
	pulledMsg struct{ err error }

	openDetailMsg  struct{ id domain.ItemID }
	closeDetailMsg struct{}

	openPickerMsg  struct{ id domain.ItemID }
	closePickerMsg struct{}

	statusMsg struct {
		text string
		err  bool
	}
)
