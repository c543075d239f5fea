package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robby/cwp/internal/store"
)

// listItem wraps a mission list for use in bubbles/list.
type listItem struct {
	name   string
	active int
	hidden int
	member bool
}

func (i listItem) FilterValue() string { return i.name }

func (i listItem) Title() string { return i.name }

func (i listItem) Description() string {
	d := fmt.Sprintf("%d active, %d hidden", i.active, i.hidden)
	if i.member {
		d += " · already holds this item"
	}
	return d
}

// listDelegate renders a list entry on two lines.
type listDelegate struct{}

func (d listDelegate) Height() int                             { return 2 }
func (d listDelegate) Spacing() int                            { return 0 }
func (d listDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d listDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(listItem)
	if !ok {
		return
	}

	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(i.Description())
	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+i.Title()))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+i.Title()))
	}
	fmt.Fprint(w, "\n    "+desc)
}

// ListPickerModel lets the user choose the list an item is added to.
type ListPickerModel struct {
	list list.Model
}

// NewListPickerModel offers every list except master, which already holds
// every item. contains reports whether a list already has the item.
func NewListPickerModel(lists []*store.MissionList, contains func(*store.MissionList) bool) ListPickerModel {
	items := make([]list.Item, 0, len(lists))
	for _, l := range lists {
		if l.IsMaster() {
			continue
		}
		items = append(items, listItem{
			name:   l.Name(),
			active: l.ActiveCount(),
			hidden: l.HiddenCount(),
			member: contains(l),
		})
	}

	l := list.New(items, listDelegate{}, 60, 20)
	l.Title = "Add to list"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	return ListPickerModel{list: l}
}

// Len returns the number of lists offered.
func (m ListPickerModel) Len() int {
	return len(m.list.Items())
}

// Init initializes the model.
func (m ListPickerModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m ListPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 2)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c":
			return m, quit
		case "q", "esc":
			return m, func() tea.Msg { return closePickerMsg{} }
		case "enter":
			if item, ok := m.list.SelectedItem().(listItem); ok {
				return m, func() tea.Msg { return ListSelectedMsg{Name: item.name} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m ListPickerModel) View() string {
	if len(m.list.Items()) == 0 {
		return ErrorStyle.Render("There are no lists besides the master list.") +
			"\n\n" + HelpStyle.Render("Press n on the board to create one, esc to go back.")
	}
	return m.list.View()
}
