package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/robby/cwp/internal/app"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/store"
)

var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				Width(12)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))
)

// DetailModel shows everything known about one item as seen from the
// current list.
type DetailModel struct {
	p      app.Presentation
	keymap KeyMap
	id     domain.ItemID

	viewport viewport.Model
	toast    string
	toastErr bool

	width  int
	height int
}

// NewDetailModel creates a detail view for id.
func NewDetailModel(p app.Presentation, id domain.ItemID) DetailModel {
	vp := viewport.New(60, 10) // resized on WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	m := DetailModel{
		p:        p,
		keymap:   DefaultKeyMap(),
		id:       id,
		viewport: vp,
	}
	m.updateContent()
	return m
}

// Init asks for the terminal size so the viewport can be laid out.
func (m DetailModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-4, 3)
		(&m).updateContent()
		return m, nil

	case registryChangedMsg:
		(&m).updateContent()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, quit
	}

	k := m.keymap
	m.toast = ""
	switch {
	case key.Matches(msg, k.Cancel), msg.String() == "q", msg.Type == tea.KeyBackspace:
		return m, func() tea.Msg { return closeDetailMsg{} }
	case key.Matches(msg, k.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, k.Up):
		m.viewport.LineUp(1)
	case msg.String() == "ctrl+d":
		m.viewport.HalfViewDown()
	case msg.String() == "ctrl+u":
		m.viewport.HalfViewUp()
	case key.Matches(msg, k.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, k.Bottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, k.Pin):
		(&m).apply(m.p.TogglePin("", m.id))
	case key.Matches(msg, k.Hide):
		v, _ := m.p.View("", m.id)
		(&m).apply(m.p.SetHidden("", m.id, !v.Hidden))
	case key.Matches(msg, k.AddTo):
		id := m.id
		return m, func() tea.Msg { return openPickerMsg{id: id} }
	}
	return m, nil
}

func (m *DetailModel) apply(err error) {
	if err != nil {
		m.toast, m.toastErr = err.Error(), true
	}
	m.updateContent()
}

// View renders the detail screen.
func (m DetailModel) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	title := "Item"
	if item, err := m.p.Item(m.id); err == nil {
		title = item.Title
	}
	header := detailTitleStyle.Render(title)

	footer := dimStyle.Render("esc:back j/k:scroll p:pin x:hide a:add to list")
	switch {
	case m.toast != "" && m.toastErr:
		footer = errorToastStyle.Render(m.toast)
	case !m.viewport.AtBottom():
		footer += scrollIndicatorStyle.Render(fmt.Sprintf("  %d%%", int(m.viewport.ScrollPercent()*100)))
	}

	body := paneStyle.Width(width - 2).Render(m.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// updateContent re-renders the item into the viewport.
func (m *DetailModel) updateContent() {
	wrap := max(m.viewport.Width-2, 20)

	item, err := m.p.Item(m.id)
	if err != nil {
		m.viewport.SetContent(ErrorStyle.Render(fmt.Sprintf("Item %s is no longer offered by the source.", m.id)))
		return
	}
	now := m.p.Now()
	view, inList := m.p.View("", m.id)

	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteString("\n")
	}

	row("ID", item.ID.String())
	row("Type", item.Type)
	row("Planet", item.Planet)
	row("State", item.State.String())
	row("Difficulty", fmt.Sprintf("%d", item.Difficulty))
	row("Reward", formatReward(item.Reward))
	if !item.Accepted.IsZero() {
		row("Accepted", item.Accepted.Format(time.DateTime))
	}
	if !item.Deadline.IsZero() {
		row("Deadline", item.Deadline.Format(time.DateTime))
	}
	row("Remaining", formatRemaining(item, now))
	if item.Category == domain.CategoryAltitudeEnvelope {
		row("Min altitude", fmt.Sprintf("%.0f m", item.Threshold))
	}

	b.WriteString("\n")
	row("In list", m.p.CurrentList().Name())
	if inList {
		row("Status", describeView(view))
	} else {
		row("Status", "not a member")
	}
	row("Lists", strings.Join(m.p.ListsContaining(m.id), ", "))

	if item.Note != "" {
		b.WriteString("\n")
		b.WriteString(wordwrap.String(item.Note, wrap))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
}

func describeView(v store.ItemView) string {
	var parts []string
	if v.Hidden {
		parts = append(parts, "hidden")
	} else {
		parts = append(parts, "shown")
	}
	if v.Pinned() {
		parts = append(parts, fmt.Sprintf("pinned #%d", *v.Pin+1))
	}
	if v.DetailsVisible {
		parts = append(parts, "expanded")
	}
	return strings.Join(parts, ", ")
}
