package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robby/cwp/internal/app"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/store"
)

// AppScreen represents the different screens of the browser.
type AppScreen int

const (
	ScreenBoard AppScreen = iota
	ScreenDetail
	ScreenPicker
)

// AppModel is the root Bubble Tea model. It owns screen transitions, the
// periodic source refresh and the final save.
type AppModel struct {
	p        app.Presentation
	ctx      context.Context
	interval time.Duration

	currentScreen AppScreen
	currentModel  tea.Model
	err           error
	pulling       bool
	pickFor       domain.ItemID

	// Cached board so its selection survives the detail and picker screens.
	boardModel *BoardModel
}

// NewAppModel creates the root model. The registry behind p must already be
// loaded. interval <= 0 disables automatic refresh.
func NewAppModel(p app.Presentation, ctx context.Context, interval time.Duration) AppModel {
	board := NewBoardModel(p, ctx)
	return AppModel{
		p:             p,
		ctx:           ctx,
		interval:      interval,
		currentScreen: ScreenBoard,
		currentModel:  board,
		boardModel:    &board,
	}
}

// Err returns the error that ended the session, if any.
func (m AppModel) Err() error {
	return m.err
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.currentModel.Init(), m.scheduleRefresh())
}

func (m AppModel) scheduleRefresh() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// pull re-reads the item source off the UI goroutine.
func (m AppModel) pull() tea.Cmd {
	return func() tea.Msg {
		return pulledMsg{err: m.p.Pull(m.ctx)}
	}
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		if err := m.p.Save(); err != nil {
			m.err = fmt.Errorf("saving mission lists: %w", err)
		}
		return m, tea.Quit

	case refreshTickMsg:
		if m.pulling {
			return m, m.scheduleRefresh()
		}
		m.pulling = true
		return m, tea.Batch(m.pull(), m.scheduleRefresh())

	case refreshRequestMsg:
		if m.pulling {
			return m, nil
		}
		m.pulling = true
		return m, m.pull()

	case pulledMsg:
		m.pulling = false
		var status tea.Cmd
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			text := fmt.Sprintf("Refresh failed: %v", msg.err)
			status = func() tea.Msg { return statusMsg{text: text, err: true} }
		}
		m.p.Sync()
		return m.broadcast(registryChangedMsg{}, status)

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detail := NewDetailModel(m.p, msg.id)
		m.currentModel = detail
		return m, detail.Init()

	case closeDetailMsg, closePickerMsg:
		return m.showBoard(nil)

	case openPickerMsg:
		picker := NewListPickerModel(m.p.AllLists(), func(l *store.MissionList) bool {
			return l.Contains(msg.id)
		})
		m.pickFor = msg.id
		m.currentScreen = ScreenPicker
		m.currentModel = picker
		return m, picker.Init()

	case ListSelectedMsg:
		status := statusMsg{text: fmt.Sprintf("Added to %q", msg.Name)}
		if err := m.p.AddToList(msg.Name, m.pickFor); err != nil {
			status = statusMsg{text: err.Error(), err: true}
		}
		return m.showBoard(func() tea.Msg { return status })
	}

	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		if m.currentScreen == ScreenBoard {
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		}
		return m, cmd
	}
	return m, nil
}

// showBoard returns to the cached board and makes it re-read the registry.
func (m AppModel) showBoard(then tea.Cmd) (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenBoard
	m.currentModel = *m.boardModel
	changed := func() tea.Msg { return registryChangedMsg{} }
	return m, tea.Batch(changed, tea.WindowSize(), then)
}

// broadcast delivers msg to the visible screen and, when another screen is
// showing, to the cached board as well.
func (m AppModel) broadcast(msg tea.Msg, extra tea.Cmd) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.currentScreen != ScreenBoard {
		updated, cmd := m.boardModel.Update(msg)
		if bm, ok := updated.(BoardModel); ok {
			m.boardModel = &bm
		}
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.currentModel, cmd = m.currentModel.Update(msg)
	if m.currentScreen == ScreenBoard {
		if bm, ok := m.currentModel.(BoardModel); ok {
			m.boardModel = &bm
		}
	}
	cmds = append(cmds, cmd, extra)
	return m, tea.Batch(cmds...)
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}
	if m.currentModel != nil {
		return m.currentModel.View()
	}
	return ""
}
