package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/cwp/internal/app"
	"github.com/robby/cwp/internal/document"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/source"
	"github.com/robby/cwp/internal/store"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func id(n byte) domain.ItemID {
	var u uuid.UUID
	for i := range u {
		u[i] = n
	}
	return u
}

// createTestTracker returns a loaded tracker over three items. Ordered by
// difficulty they read Test Part, Rescue Kerbal, Explore Mun.
func createTestTracker(t *testing.T, doc *document.Document) (*app.Tracker, *source.Memory) {
	t.Helper()
	mem := source.NewMemory(zerolog.Nop(),
		domain.Item{ID: id(1), Title: "Explore Mun", Planet: "Mun", Difficulty: 2, Reward: 30000, Deadline: now.Add(50 * time.Hour)},
		domain.Item{ID: id(2), Title: "Test Part", Planet: "Kerbin", Difficulty: 0, Reward: 8000, Note: "Test the part while splashed down."},
		domain.Item{ID: id(3), Title: "Rescue Kerbal", Planet: "Minmus", Difficulty: 1, Reward: 15000, Deadline: now.Add(2 * time.Hour)},
	)
	tr := app.New(mem, doc, app.Options{Now: func() time.Time { return now }}, zerolog.Nop())
	require.NoError(t, tr.Load(context.Background()))
	return tr, mem
}

func createTestBoard(t *testing.T) (BoardModel, *app.Tracker) {
	t.Helper()
	tr, _ := createTestTracker(t, nil)
	board := NewBoardModel(tr, context.Background())
	board.width = 120
	board.height = 30
	return board, tr
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(board BoardModel, msgs ...tea.KeyMsg) BoardModel {
	for _, msg := range msgs {
		model, _ := board.Update(msg)
		board = model.(BoardModel)
	}
	return board
}

func boardTitles(board BoardModel) []string {
	out := make([]string, len(board.items))
	for i, item := range board.items {
		out[i] = item.Title
	}
	return out
}

func TestBoardModel_LoadsCurrentList(t *testing.T) {
	board, _ := createTestBoard(t)

	assert.Equal(t, []string{"Test Part", "Rescue Kerbal", "Explore Mun"}, boardTitles(board))
	require.Len(t, board.lists, 1)
	assert.Equal(t, store.MasterName, board.lists[0].Name())
}

func TestBoardModel_Navigation(t *testing.T) {
	board, _ := createTestBoard(t)
	assert.Equal(t, 0, board.selected)

	board = press(board, keys("j"))
	assert.Equal(t, 1, board.selected)

	board = press(board, keys("j"), keys("j"), keys("j"))
	assert.Equal(t, 2, board.selected, "selection stops at the last item")

	board = press(board, keys("k"))
	assert.Equal(t, 1, board.selected)

	board = press(board, keys("g"))
	assert.Equal(t, 0, board.selected)

	board = press(board, keys("G"))
	assert.Equal(t, 2, board.selected)
}

func TestBoardModel_PinFollowsItem(t *testing.T) {
	board, tr := createTestBoard(t)

	board = press(board, keys("G"), keys("p"))

	assert.Equal(t, []string{"Explore Mun", "Test Part", "Rescue Kerbal"}, boardTitles(board))
	assert.Equal(t, 0, board.selected, "selection follows the pinned item")
	v, ok := tr.View("", id(1))
	require.True(t, ok)
	assert.True(t, v.Pinned())

	board = press(board, keys("p"))
	assert.Equal(t, []string{"Test Part", "Rescue Kerbal", "Explore Mun"}, boardTitles(board))
}

func TestBoardModel_HideAndShowHidden(t *testing.T) {
	board, tr := createTestBoard(t)

	board = press(board, keys("x"))
	assert.Equal(t, []string{"Rescue Kerbal", "Explore Mun"}, boardTitles(board))

	board = press(board, keys("H"))
	assert.False(t, tr.CurrentList().ShowActive())
	assert.Equal(t, []string{"Test Part"}, boardTitles(board))

	board = press(board, keys("x"), keys("H"))
	assert.Equal(t, []string{"Test Part", "Rescue Kerbal", "Explore Mun"}, boardTitles(board))
}

func TestBoardModel_PinHiddenReportsError(t *testing.T) {
	board, _ := createTestBoard(t)

	board = press(board, keys("x"), keys("H"), keys("p"))

	assert.True(t, board.toastErr)
	assert.Contains(t, board.toast, "no effect")
}

func TestBoardModel_SortKeys(t *testing.T) {
	board, tr := createTestBoard(t)

	board = press(board, keys("S"))
	assert.False(t, tr.CurrentList().Ascending())
	assert.Equal(t, []string{"Explore Mun", "Rescue Kerbal", "Test Part"}, boardTitles(board))

	board = press(board, keys("s"))
	assert.Equal(t, domain.SortType, tr.CurrentList().Criterion())
	assert.False(t, tr.CurrentList().Ascending(), "cycling keeps the direction")
	assert.Len(t, board.items, 3)
}

func TestBoardModel_ToggleDetails(t *testing.T) {
	board, tr := createTestBoard(t)
	before, _ := tr.View("", id(2))

	press(board, keys("d"))

	after, _ := tr.View("", id(2))
	assert.NotEqual(t, before.DetailsVisible, after.DetailsVisible)
}

func TestBoardModel_CreateAndSelectList(t *testing.T) {
	board, tr := createTestBoard(t)

	board = press(board, keys("n"))
	assert.Equal(t, modeInput, board.mode)

	board = press(board, keys("Science"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modeNormal, board.mode)
	assert.False(t, board.toastErr)
	assert.Equal(t, []string{store.MasterName, "Science"}, tr.Names())
	require.Len(t, board.lists, 2)

	board = press(board, keys("l"))
	assert.Equal(t, "Science", tr.CurrentList().Name())
	assert.Empty(t, board.items)

	board = press(board, keys("l"))
	assert.Equal(t, store.MasterName, tr.CurrentList().Name(), "cycling wraps around")
	assert.Len(t, board.items, 3)
}

func TestBoardModel_InputCancel(t *testing.T) {
	board, tr := createTestBoard(t)

	board = press(board, keys("n"), keys("Junk"), tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, modeNormal, board.mode)
	assert.Equal(t, []string{store.MasterName}, tr.Names())

	board = press(board, keys("n"))
	assert.Empty(t, board.input.Value(), "a cancelled input starts empty next time")
}

func TestBoardModel_DuplicateNameRejected(t *testing.T) {
	board, tr := createTestBoard(t)

	board = press(board, keys("n"), keys(store.MasterName), tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, board.toastErr)
	assert.Equal(t, []string{store.MasterName}, tr.Names())
}

func TestBoardModel_NewListWithItem(t *testing.T) {
	board, tr := createTestBoard(t)

	board = press(board, keys("j"), keys("N"), keys("Rescues"), tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, tr.Registry().List("Rescues"))
	assert.True(t, tr.Registry().List("Rescues").Contains(id(3)))
	assert.Equal(t, 1, tr.Registry().List("Rescues").Len())
	assert.Contains(t, board.toast, "Rescues")
}

func TestBoardModel_RenameAndDelete(t *testing.T) {
	board, tr := createTestBoard(t)
	require.NoError(t, tr.CreateList("Science"))
	require.NoError(t, tr.Select("Science"))
	model, _ := board.Update(registryChangedMsg{})
	board = model.(BoardModel)

	board = press(board, keys("R"))
	assert.Equal(t, "Science", board.input.Value(), "rename starts from the current name")

	board.input.SetValue("")
	board = press(board, keys("Biology"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{store.MasterName, "Biology"}, tr.Names())

	board = press(board, keys("D"))
	assert.Equal(t, modeConfirm, board.mode)
	board = press(board, keys("n"))
	assert.Equal(t, modeNormal, board.mode)
	assert.Equal(t, []string{store.MasterName, "Biology"}, tr.Names(), "any other key cancels")

	board = press(board, keys("D"), keys("y"))
	assert.Equal(t, []string{store.MasterName}, tr.Names())
	assert.Equal(t, store.MasterName, tr.CurrentList().Name())
	assert.Len(t, board.items, 3)
}

func TestBoardModel_MasterIsProtected(t *testing.T) {
	board, tr := createTestBoard(t)

	board = press(board, keys("D"))
	assert.Equal(t, modeNormal, board.mode)
	assert.True(t, board.toastErr)

	board = press(board, keys("R"))
	assert.Equal(t, modeNormal, board.mode)
	assert.True(t, board.toastErr)
	assert.Equal(t, []string{store.MasterName}, tr.Names())
}

func TestBoardModel_DropFromMaster(t *testing.T) {
	board, tr := createTestBoard(t)
	require.NoError(t, tr.NewListWithItem("Science", id(2)))

	board = press(board, keys("X"))

	assert.Equal(t, []string{"Rescue Kerbal", "Explore Mun"}, boardTitles(board))
	assert.False(t, tr.Registry().List("Science").Contains(id(2)), "removal from master cascades")
}

func TestBoardModel_Rebuild(t *testing.T) {
	board, tr := createTestBoard(t)
	require.NoError(t, tr.CreateList("Science"))

	board = press(board, keys("B"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{store.MasterName}, tr.Names())
	assert.Len(t, board.lists, 1)
	assert.Len(t, board.items, 3)
}

func TestBoardModel_QuitAndRefreshEmitMessages(t *testing.T) {
	board, _ := createTestBoard(t)

	_, cmd := board.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, QuitMsg{}, cmd())

	_, cmd = board.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, openDetailMsg{id: id(2)}, cmd())

	model, cmd := board.Update(keys("r"))
	board = model.(BoardModel)
	assert.True(t, board.refreshing)
	require.NotNil(t, cmd)

	model, _ = board.Update(registryChangedMsg{})
	assert.False(t, model.(BoardModel).refreshing)
}

func TestBoardModel_OpenNeedsSelection(t *testing.T) {
	board, tr := createTestBoard(t)
	require.NoError(t, tr.CreateList("Science"))
	model, _ := board.Update(registryChangedMsg{})
	board = press(model.(BoardModel), keys("l"))
	require.Equal(t, "Science", tr.CurrentList().Name())

	_, cmd := board.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "nothing to open in an empty list")
}

func TestBoardModel_WindowResize(t *testing.T) {
	board, _ := createTestBoard(t)

	model, _ := board.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	board = model.(BoardModel)

	assert.Equal(t, 100, board.width)
	assert.Equal(t, 40, board.height)
}

func TestBoardModel_ScrollKeepsSelectionVisible(t *testing.T) {
	board, _ := createTestBoard(t)
	board.height = 11 // five item lines; every row carries its details line

	board = press(board, keys("G"))

	assert.Equal(t, 2, board.selected)
	assert.Equal(t, 1, board.offset)

	board = press(board, keys("g"))
	assert.Equal(t, 0, board.offset)
}

func TestBoardModel_View(t *testing.T) {
	board, tr := createTestBoard(t)
	require.NoError(t, tr.CreateList("Science"))
	model, _ := board.Update(registryChangedMsg{})
	board = model.(BoardModel)

	require.NotPanics(t, func() {
		view := board.View()
		assert.Contains(t, view, store.MasterName)
		assert.Contains(t, view, "Science")
		assert.Contains(t, view, "Rescue Kerbal")
		assert.Contains(t, view, "sort: difficulty")
	})

	board = press(board, keys("?"))
	assert.Contains(t, board.View(), "pin/unpin")

	board = press(board, keys("?"))
	assert.False(t, board.showHelp)
}

func TestBoardModel_ViewWithoutSize(t *testing.T) {
	tr, _ := createTestTracker(t, nil)
	board := NewBoardModel(tr, context.Background())

	require.NotPanics(t, func() {
		assert.NotEmpty(t, board.View())
	})
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name string
		item domain.Item
		want string
	}{
		{"minutes", domain.Item{Deadline: now.Add(30 * time.Minute)}, "30m"},
		{"hours", domain.Item{Deadline: now.Add(5*time.Hour + 30*time.Minute)}, "5h 30m"},
		{"days", domain.Item{Deadline: now.Add(50 * time.Hour)}, "2d 2h"},
		{"no deadline", domain.Item{}, "no deadline"},
		{"expired", domain.Item{Deadline: now.Add(-time.Minute)}, "expired"},
		{"completed", domain.Item{State: domain.StateCompleted, Deadline: now.Add(time.Hour)}, "completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatRemaining(tt.item, now))
		})
	}
}

func TestFormatReward(t *testing.T) {
	assert.Equal(t, "√999", formatReward(999))
	assert.Equal(t, "√30,000", formatReward(30000))
	assert.Equal(t, "√1,234,567", formatReward(1234567.8))
	assert.Equal(t, "-√1,500", formatReward(-1500))
}

func TestAppModel_AddToListThroughPicker(t *testing.T) {
	tr, _ := createTestTracker(t, nil)
	require.NoError(t, tr.CreateList("Science"))
	m := NewAppModel(tr, context.Background(), 0)

	model, _ := m.Update(openPickerMsg{id: id(1)})
	m = model.(AppModel)
	assert.Equal(t, ScreenPicker, m.currentScreen)
	picker, ok := m.currentModel.(ListPickerModel)
	require.True(t, ok)
	assert.Equal(t, 1, picker.Len(), "master is not offered")

	model, _ = m.Update(ListSelectedMsg{Name: "Science"})
	m = model.(AppModel)
	assert.Equal(t, ScreenBoard, m.currentScreen)
	assert.True(t, tr.Registry().List("Science").Contains(id(1)))
}

func TestAppModel_DetailRoundTrip(t *testing.T) {
	tr, _ := createTestTracker(t, nil)
	m := NewAppModel(tr, context.Background(), 0)

	model, _ := m.Update(openDetailMsg{id: id(2)})
	m = model.(AppModel)
	assert.Equal(t, ScreenDetail, m.currentScreen)
	model, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = model.(AppModel)
	view := m.View()
	assert.Contains(t, view, "Test Part")
	assert.Contains(t, view, "splashed down")

	model, _ = m.Update(closeDetailMsg{})
	m = model.(AppModel)
	assert.Equal(t, ScreenBoard, m.currentScreen)
}

func TestAppModel_PulledSyncsRegistry(t *testing.T) {
	tr, mem := createTestTracker(t, nil)
	m := NewAppModel(tr, context.Background(), time.Hour)
	mem.Put(domain.Item{ID: id(4), Title: "Plant Flag"})

	model, cmd := m.Update(refreshTickMsg{})
	m = model.(AppModel)
	assert.True(t, m.pulling)
	assert.NotNil(t, cmd)

	model, _ = m.Update(pulledMsg{})
	m = model.(AppModel)
	assert.False(t, m.pulling)
	assert.True(t, tr.Registry().Master().Contains(id(4)))
	assert.Len(t, m.boardModel.items, 4)
}

func TestAppModel_QuitSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persistent.yaml")
	tr, _ := createTestTracker(t, document.New(path, "", zerolog.Nop()))
	m := NewAppModel(tr, context.Background(), 0)

	model, cmd := m.Update(QuitMsg{})
	require.NotNil(t, cmd)
	assert.NoError(t, model.(AppModel).Err())

	_, err := os.Stat(path)
	assert.NoError(t, err, "mission lists saved on quit")
}
