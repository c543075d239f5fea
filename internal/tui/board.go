package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/robby/cwp/internal/app"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/store"
)

// Layout constants
const (
	listPaneWidth = 28
	minItemWidth  = 30
	chromeLines   = 3  // header, status line and footer
	pageJumpSize  = 10 // rows moved by ctrl+d/ctrl+u
	expiringSoon  = 24 * time.Hour
)

type boardMode int

const (
	modeNormal boardMode = iota
	modeInput
	modeConfirm
)

type inputAction int

const (
	inputNewList inputAction = iota
	inputNewWithItem
	inputRename
)

type confirmAction int

const (
	confirmDelete confirmAction = iota
	confirmRebuild
)

// BoardModel shows every mission list on the left and the ordered members of
// the current list on the right.
type BoardModel struct {
	p   app.Presentation
	ctx context.Context

	keymap  KeyMap
	help    HelpModel
	spinner spinner.Model
	input   textinput.Model

	lists    []*store.MissionList
	items    []domain.Item
	selected int
	offset   int

	mode       boardMode
	inputFor   inputAction
	confirmFor confirmAction
	pendingID  domain.ItemID // item captured when an input started

	width      int
	height     int
	showHelp   bool
	refreshing bool
	toast      string
	toastErr   bool
}

// NewBoardModel creates a board over p and loads the current registry state.
func NewBoardModel(p app.Presentation, ctx context.Context) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.CharLimit = 64
	ti.PromptStyle = PromptStyle

	m := BoardModel{
		p:       p,
		ctx:     ctx,
		keymap:  DefaultKeyMap(),
		help:    NewHelpModel(DefaultKeyMap()),
		spinner: sp,
		input:   ti,
	}
	m.reload()
	return m
}

// Init starts the spinner and asks for the terminal size.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-20)
		(&m).adjustScroll()
		return m, nil

	case registryChangedMsg:
		m.refreshing = false
		(&m).reload()
		return m, nil

	case statusMsg:
		m.toast, m.toastErr = msg.text, msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keymap.Help, m.keymap.Quit, m.keymap.Cancel) {
			m.showHelp = false
		}
		return m, nil
	}

	switch m.mode {
	case modeInput:
		return m.handleInput(msg)
	case modeConfirm:
		return m.handleConfirm(msg)
	}

	m.toast = ""
	k := m.keymap
	switch {
	case key.Matches(msg, k.Quit):
		return m, quit
	case key.Matches(msg, k.Help):
		m.showHelp = true

	case key.Matches(msg, k.Up):
		(&m).moveSelection(-1)
	case key.Matches(msg, k.Down):
		(&m).moveSelection(1)
	case key.Matches(msg, k.Top):
		(&m).jumpTo(0)
	case key.Matches(msg, k.Bottom):
		(&m).jumpTo(-1)
	case msg.String() == "ctrl+d":
		(&m).moveSelection(pageJumpSize)
	case msg.String() == "ctrl+u":
		(&m).moveSelection(-pageJumpSize)
	case key.Matches(msg, k.PrevList):
		(&m).cycleList(-1)
	case key.Matches(msg, k.NextList):
		(&m).cycleList(1)

	case key.Matches(msg, k.Open):
		if item, ok := m.selectedItem(); ok {
			return m, func() tea.Msg { return openDetailMsg{id: item.ID} }
		}

	case key.Matches(msg, k.Pin):
		(&m).withItem(func(id domain.ItemID) error { return m.p.TogglePin("", id) }, "")
	case key.Matches(msg, k.Hide):
		(&m).withItem(func(id domain.ItemID) error {
			v, _ := m.p.View("", id)
			return m.p.SetHidden("", id, !v.Hidden)
		}, "")
	case key.Matches(msg, k.Details):
		(&m).withItem(func(id domain.ItemID) error { return m.p.ToggleDetails("", id) }, "")
	case key.Matches(msg, k.AddTo):
		if item, ok := m.selectedItem(); ok {
			return m, func() tea.Msg { return openPickerMsg{id: item.ID} }
		}
	case key.Matches(msg, k.Drop):
		if item, ok := m.selectedItem(); ok {
			(&m).apply(m.p.RemoveFromList("", item.ID), fmt.Sprintf("Removed %q", item.Title))
		}

	case key.Matches(msg, k.Sort):
		l := m.p.CurrentList()
		(&m).apply(m.p.SetSort("", l.Criterion().Next(), l.Ascending()), "")
	case key.Matches(msg, k.Direction):
		l := m.p.CurrentList()
		(&m).apply(m.p.SetSort("", l.Criterion(), !l.Ascending()), "")
	case key.Matches(msg, k.ShowHidden):
		m.items = nil
		m.selected, m.offset = 0, 0
		(&m).apply(m.p.ToggleShowHidden(""), "")

	case key.Matches(msg, k.NewList):
		cmd := (&m).startInput(inputNewList, "New list: ", "")
		return m, cmd
	case key.Matches(msg, k.NewWith):
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		m.pendingID = item.ID
		cmd := (&m).startInput(inputNewWithItem, "New list with item: ", "")
		return m, cmd
	case key.Matches(msg, k.Rename):
		cur := m.p.CurrentList()
		if cur.IsMaster() {
			m.toast, m.toastErr = "The master list cannot be renamed", true
			return m, nil
		}
		cmd := (&m).startInput(inputRename, "Rename to: ", cur.Name())
		return m, cmd
	case key.Matches(msg, k.Delete):
		if m.p.CurrentList().IsMaster() {
			m.toast, m.toastErr = "The master list cannot be deleted", true
			return m, nil
		}
		m.mode, m.confirmFor = modeConfirm, confirmDelete
	case key.Matches(msg, k.Rebuild):
		m.mode, m.confirmFor = modeConfirm, confirmRebuild

	case key.Matches(msg, k.Refresh):
		m.refreshing = true
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg { return refreshRequestMsg{} })
	case key.Matches(msg, k.Save):
		(&m).apply(m.p.Save(), "Saved")
	}

	return m, nil
}

func (m BoardModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		(&m).endInput()
		return m, nil
	case msg.Type == tea.KeyEnter:
		name := strings.TrimSpace(m.input.Value())
		action := m.inputFor
		(&m).endInput()
		if name == "" {
			return m, nil
		}
		switch action {
		case inputNewList:
			(&m).apply(m.p.CreateList(name), fmt.Sprintf("Created %q", name))
		case inputNewWithItem:
			(&m).apply(m.p.NewListWithItem(name, m.pendingID), fmt.Sprintf("Created %q", name))
		case inputRename:
			(&m).apply(m.p.RenameList("", name), fmt.Sprintf("Renamed to %q", name))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BoardModel) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	if !key.Matches(msg, m.keymap.Confirm) {
		return m, nil
	}

	switch m.confirmFor {
	case confirmDelete:
		name := m.p.CurrentList().Name()
		m.items = nil
		(&m).apply(m.p.RemoveList(name), fmt.Sprintf("Deleted %q", name))
	case confirmRebuild:
		m.items = nil
		(&m).apply(m.p.Rebuild(m.ctx), "Rebuilt lists from the item source")
	}
	return m, nil
}

func (m *BoardModel) startInput(action inputAction, prompt, value string) tea.Cmd {
	m.mode = modeInput
	m.inputFor = action
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *BoardModel) endInput() {
	m.mode = modeNormal
	m.input.Blur()
	m.input.Reset()
}

// apply reports the outcome of an operation and re-reads the registry.
func (m *BoardModel) apply(err error, done string) {
	if err != nil {
		m.toast, m.toastErr = err.Error(), true
	} else if done != "" {
		m.toast, m.toastErr = done, false
	}
	m.reload()
}

func (m *BoardModel) withItem(fn func(domain.ItemID) error, done string) {
	item, ok := m.selectedItem()
	if !ok {
		return
	}
	m.apply(fn(item.ID), done)
}

func (m *BoardModel) cycleList(delta int) {
	if len(m.lists) < 2 {
		return
	}
	next := (m.currentIndex() + delta + len(m.lists)) % len(m.lists)
	m.items = nil
	m.selected, m.offset = 0, 0
	m.apply(m.p.Select(m.lists[next].Name()), "")
}

func (m BoardModel) currentIndex() int {
	cur := m.p.CurrentList()
	for i, l := range m.lists {
		if l == cur {
			return i
		}
	}
	return 0
}

// reload re-reads lists and the current list's view, keeping the selected
// item selected when it is still shown.
func (m *BoardModel) reload() {
	prev, had := m.selectedItem()

	m.lists = m.p.AllLists()
	items, err := m.p.OrderedView("")
	if err != nil {
		m.toast, m.toastErr = err.Error(), true
	}
	m.items = items

	if had {
		for i, item := range items {
			if item.ID == prev.ID {
				m.selected = i
				break
			}
		}
	}
	m.clampSelection()
	m.adjustScroll()
}

func (m *BoardModel) clampSelection() {
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *BoardModel) moveSelection(delta int) {
	if len(m.items) == 0 {
		return
	}
	m.selected += delta
	m.clampSelection()
	m.adjustScroll()
}

// jumpTo selects the item at idx. Use -1 for the last item.
func (m *BoardModel) jumpTo(idx int) {
	if len(m.items) == 0 {
		return
	}
	if idx < 0 {
		idx = len(m.items) - 1
	}
	m.selected = idx
	m.clampSelection()
	m.adjustScroll()
}

// adjustScroll keeps the selected row inside the item pane.
func (m *BoardModel) adjustScroll() {
	if m.selected < m.offset {
		m.offset = m.selected
	}
	for m.offset < m.selected && m.linesBetween(m.offset, m.selected) > m.rowsFrom(m.offset) {
		m.offset++
	}
}

// rowsFrom is the number of item lines shown when scrolled to offset.
func (m BoardModel) rowsFrom(offset int) int {
	rows := m.itemRows()
	if offset > 0 {
		rows-- // "more above" marker
	}
	return max(rows, 1)
}

// itemRows is the number of text lines available for items.
func (m BoardModel) itemRows() int {
	height := m.height
	if height == 0 {
		height = 24
	}
	return height - chromeLines - 2 - 1 // pane border and pane header
}

func (m BoardModel) linesBetween(from, to int) int {
	n := 0
	for i := from; i <= to && i < len(m.items); i++ {
		n += m.rowHeight(m.items[i].ID)
	}
	return n
}

func (m BoardModel) rowHeight(id domain.ItemID) int {
	if v, ok := m.p.View("", id); ok && v.DetailsVisible {
		return 2
	}
	return 1
}

// selectedItem returns the highlighted item
func (m BoardModel) selectedItem() (domain.Item, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return domain.Item{}, false
	}
	return m.items[m.selected], true
}

// View renders the board to fill the terminal.
func (m BoardModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	bodyHeight := max(height-chromeLines, 5)

	var body string
	if m.showHelp {
		lines := strings.Split(m.help.View(width), "\n")
		if len(lines) > bodyHeight {
			lines = lines[:bodyHeight]
		}
		body = strings.Join(lines, "\n")
	} else {
		itemWidth := max(width-listPaneWidth, minItemWidth)
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderLists(listPaneWidth, bodyHeight),
			m.renderItems(itemWidth, bodyHeight),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(width),
		m.renderStatusLine(width),
		body,
		dimStyle.Render(m.help.Short(width)),
	)
}

// renderHeader renders the title on the left and list state on the right.
func (m BoardModel) renderHeader(width int) string {
	cur := m.p.CurrentList()
	title := "Contracts"

	var status []string
	if m.refreshing {
		status = append(status, m.spinner.View()+"refreshing")
	}
	status = append(status, fmt.Sprintf("%d shown", len(m.items)))

	dir := "↑"
	if !cur.Ascending() {
		dir = "↓"
	}
	status = append(status, fmt.Sprintf("sort: %s %s", cur.Criterion(), dir))
	if !cur.ShowActive() {
		status = append(status, "hidden")
	}
	right := strings.Join(status, " | ")

	padding := max(width-lipgloss.Width(title)-lipgloss.Width(right)-2, 1)
	return TitleStyle.UnsetMarginBottom().Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderStatusLine renders the prompt, confirmation or last operation result.
func (m BoardModel) renderStatusLine(width int) string {
	switch m.mode {
	case modeInput:
		return m.input.View()
	case modeConfirm:
		q := fmt.Sprintf("Delete list %q?", m.p.CurrentList().Name())
		if m.confirmFor == confirmRebuild {
			q = "Discard every list and rebuild from the item source?"
		}
		return modeBadgeStyle.Render("CONFIRM") + " " + q + dimStyle.Render(" [y/enter] yes  [any] no")
	}
	if m.toast == "" {
		return ""
	}
	text := truncate.StringWithTail(m.toast, uint(max(width-2, 1)), "…")
	if m.toastErr {
		return errorToastStyle.Render(text)
	}
	return toastStyle.Render(text)
}

// renderLists renders the list pane.
func (m BoardModel) renderLists(width, height int) string {
	inner := width - 4
	cur := m.p.CurrentList()

	lines := []string{paneHeaderStyle.Render(fmt.Sprintf("Lists (%d)", len(m.lists)))}
	for _, l := range m.lists {
		label := fmt.Sprintf("%s (%d)", l.Name(), l.ActiveCount())
		if n := l.HiddenCount(); n > 0 {
			label += fmt.Sprintf(" +%d", n)
		}
		label = truncate.StringWithTail(label, uint(max(inner-2, 1)), "…")
		if l == cur {
			lines = append(lines, selectedRowStyle.Render("> "+label))
		} else {
			lines = append(lines, rowStyle.Render("  "+label))
		}
	}
	if len(lines) > height-2 {
		lines = lines[:height-2]
	}

	return paneStyle.
		Width(width - 2).
		Height(height - 2).
		Render(strings.Join(lines, "\n"))
}

// renderItems renders the ordered members of the current list.
func (m BoardModel) renderItems(width, height int) string {
	inner := width - 4
	cur := m.p.CurrentList()
	now := m.p.Now()

	header := fmt.Sprintf("%s (%d)", cur.Name(), len(m.items))
	lines := []string{paneHeaderStyle.Render(truncate.StringWithTail(header, uint(max(inner, 1)), "…"))}

	rows := height - 3
	if m.offset > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", m.offset)))
		rows--
	}

	used := 0
	end := m.offset
	for i := m.offset; i < len(m.items); i++ {
		item := m.items[i]
		view, _ := m.p.View("", item.ID)
		need := 1
		if view.DetailsVisible {
			need = 2
		}
		if used+need > rows {
			break
		}
		lines = append(lines, m.formatRow(item, view, i == m.selected, inner, now))
		if view.DetailsVisible {
			lines = append(lines, dimStyle.Render("    "+truncate.StringWithTail(formatSummary(item), uint(max(inner-4, 1)), "…")))
		}
		used += need
		end = i + 1
	}
	if remaining := len(m.items) - end; remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}
	if len(m.items) == 0 {
		empty := "(empty)"
		if !cur.ShowActive() {
			empty = "(nothing hidden)"
		}
		lines = append(lines, dimStyle.Render(empty))
	}

	return focusedPaneStyle.
		Width(width - 2).
		Height(height - 2).
		Render(strings.Join(lines, "\n"))
}

// formatRow renders one item: a pin marker, the title and the time left.
func (m BoardModel) formatRow(item domain.Item, view store.ItemView, selected bool, width int, now time.Time) string {
	marker := "  "
	if view.Pinned() {
		marker = pinStyle.Render("* ")
	}

	suffix := formatRemaining(item, now)
	avail := max(width-lipgloss.Width(marker)-len(suffix)-3, 5)
	title := truncate.StringWithTail(item.Title, uint(avail), "…")
	padding := max(avail-lipgloss.Width(title), 0)

	suffixStyle := dimStyle
	if r := item.Remaining(now); item.State == domain.StateActive && r < expiringSoon {
		suffixStyle = expiringStyle
	}

	style := rowStyle
	switch {
	case selected:
		style = selectedRowStyle
	case view.Hidden:
		style = hiddenRowStyle
	}

	cursor := " "
	if selected {
		cursor = ">"
	}
	return style.Render(cursor) + marker + style.Render(title) + strings.Repeat(" ", padding+1) + suffixStyle.Render(suffix)
}

// formatSummary is the one-line detail shown under an expanded item.
func formatSummary(item domain.Item) string {
	parts := []string{}
	if item.Type != "" {
		parts = append(parts, item.Type)
	}
	if item.Planet != "" {
		parts = append(parts, item.Planet)
	}
	parts = append(parts, fmt.Sprintf("rank %d", item.Difficulty))
	parts = append(parts, formatReward(item.Reward))
	return strings.Join(parts, " · ")
}

// formatRemaining renders the time left on an item.
func formatRemaining(item domain.Item, now time.Time) string {
	if item.State != domain.StateActive {
		return item.State.String()
	}
	r := item.Remaining(now)
	switch {
	case r == domain.NoExpiry:
		return "no deadline"
	case r <= 0:
		return "expired"
	case r < time.Hour:
		return fmt.Sprintf("%dm", int(r.Minutes()))
	case r < expiringSoon:
		return fmt.Sprintf("%dh %dm", int(r.Hours()), int(r.Minutes())%60)
	default:
		days := int(r.Hours()) / 24
		return fmt.Sprintf("%dd %dh", days, int(r.Hours())%24)
	}
}

// formatReward renders a funds amount with thousands separators.
func formatReward(v float64) string {
	n := int64(v)
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-√" + b.String()
	}
	return "√" + b.String()
}

func quit() tea.Msg { return QuitMsg{} }
