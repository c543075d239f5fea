package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// HelpOverlayStyle frames the full key reference.
var HelpOverlayStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(1, 2).
	MarginTop(1)

// HelpModel renders the key reference for a KeyMap.
type HelpModel struct {
	help   help.Model
	keymap KeyMap
}

// NewHelpModel creates a help overlay showing every binding.
func NewHelpModel(keymap KeyMap) HelpModel {
	h := help.New()
	h.ShowAll = true
	return HelpModel{help: h, keymap: keymap}
}

// View renders the overlay for the given terminal width.
func (m HelpModel) View(width int) string {
	m.help.Width = width - 8 // border and padding
	return HelpOverlayStyle.Render(m.help.View(m.keymap))
}

// Short renders the one-line hint shown in the footer.
func (m HelpModel) Short(width int) string {
	m.help.ShowAll = false
	m.help.Width = width
	return m.help.View(m.keymap)
}
