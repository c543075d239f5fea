package store

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/robby/cwp/internal/domain"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(v int) *int    { return &v }

func createTestRegistry() *Registry {
	r := newTestRegistry()
	r.NewListWithItem("Science", id(1))
	r.AddItem("Science", id(2), true)
	r.AddItem("Science", id(3), false)
	r.List("Science").Pin(id(2))
	r.List("Science").SetSort(domain.SortReward, false)
	r.List("Science").SetShowHidden(true)
	r.List("Science").Associate(uuid.MustParse("66666666-6666-6666-6666-666666666666"))
	r.CreateList("Empty")
	r.SetWindow(domain.SceneEditor, domain.WindowState{Visible: true, Rect: domain.Rect{X: 5, Y: 6, W: 7, H: 8}})
	return r
}

func TestSnapshot_RoundTrip(t *testing.T) {
	r := createTestRegistry()
	frag := r.Snapshot()

	require.Len(t, frag.Missions, 3)
	assert.Equal(t, MasterName, frag.Missions[0].Name)

	restored := newTestRegistry()
	restored.Restore(frag, nil)

	assert.Equal(t, r.Names(), restored.Names())
	for _, name := range r.Names() {
		want, got := r.List(name), restored.List(name)
		require.NotNil(t, got, name)
		assert.Equal(t, want.ActiveIDs(), got.ActiveIDs(), name)
		assert.Equal(t, want.HiddenIDs(), got.HiddenIDs(), name)
		assert.Equal(t, want.Criterion(), got.Criterion(), name)
		assert.Equal(t, want.Ascending(), got.Ascending(), name)
		assert.Equal(t, want.ShowActive(), got.ShowActive(), name)
		assert.Equal(t, want.Associations(), got.Associations(), name)
		for _, member := range want.ActiveIDs() {
			wv, _ := want.View(member)
			gv, _ := got.View(member)
			assert.Equal(t, wv, gv)
		}
	}
	for s := domain.SceneFlight; s <= domain.SceneTrackingStation; s++ {
		assert.Equal(t, r.Window(s), restored.Window(s))
	}

	assert.Equal(t, frag, restored.Snapshot())
}

func TestSnapshot_YAMLKeys(t *testing.T) {
	out, err := yaml.Marshal(createTestRegistry().Snapshot())
	require.NoError(t, err)

	for _, key := range []string{
		"WindowPosition:", "WindowVisible:", "Name:", "ActiveListID:", "HiddenListID:",
		"VesselIDs:", "AscendingSort:", "ShowActiveList:", "SortMode: 3",
	} {
		assert.Contains(t, string(out), key)
	}
	assert.Contains(t, string(out), "50,-80,250,300,5,6,7,8")
	assert.Contains(t, string(out), "False,True,False,False")
}

func TestRestore_Defaults(t *testing.T) {
	r := newTestRegistry()
	r.Restore(Fragment{Missions: []ListFragment{
		{Name: MasterName},
		{Name: "Science", ActiveListID: id(1).String() + "|N|True"},
		{Name: "Bad", SortMode: intPtr(17), AscendingSort: boolPtr(false)},
	}}, nil)

	l := r.List("Science")
	require.NotNil(t, l)
	assert.Equal(t, domain.SortDifficulty, l.Criterion())
	assert.True(t, l.Ascending())
	assert.True(t, l.ShowActive())

	bad := r.List("Bad")
	require.NotNil(t, bad)
	assert.Equal(t, domain.DefaultSort, bad.Criterion())
	assert.False(t, bad.Ascending())

	assert.True(t, r.Master().Contains(id(1)), "ids only in other lists join master")
	assert.Equal(t, domain.DefaultRect, r.Window(domain.SceneFlight).Rect)
}

func TestRestore_SkipsBlankAndDuplicateNames(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(zerolog.New(&buf))

	r.Restore(Fragment{Missions: []ListFragment{
		{Name: ""},
		{Name: "Science", ActiveListID: id(1).String() + "|N|True"},
		{Name: "Science", ActiveListID: id(2).String() + "|N|True"},
		{Name: MasterName, ActiveListID: id(3).String() + "|N|True"},
		{Name: MasterName, ActiveListID: id(4).String() + "|N|True"},
	}}, nil)

	assert.Equal(t, []string{MasterName, "Science"}, r.Names())
	assert.Equal(t, []domain.ItemID{id(1)}, r.List("Science").ActiveIDs())
	assert.True(t, r.Master().Contains(id(3)))
	assert.False(t, r.Master().Contains(id(4)))
	assert.False(t, r.Master().Contains(id(2)))
	assert.Contains(t, buf.String(), "without a name")
	assert.Contains(t, buf.String(), "duplicate persisted list")
}

func TestRestore_WithSource(t *testing.T) {
	src := createTestSource(1, 2, 5)
	r := newTestRegistry()

	r.Restore(Fragment{Missions: []ListFragment{
		{Name: MasterName, ActiveListID: id(1).String() + "|N|True," + id(9).String() + "|N|True"},
		{Name: "Science", ActiveListID: id(2).String() + "|0|True," + id(8).String() + "|N|True"},
	}}, src)

	assert.ElementsMatch(t, []domain.ItemID{id(1), id(2), id(5)}, r.Master().ActiveIDs())
	assert.False(t, r.Master().Contains(id(9)), "unknown to source")
	assert.Equal(t, []domain.ItemID{id(2)}, r.List("Science").ActiveIDs())
}

func TestRestore_NoListsRebuildsFromSource(t *testing.T) {
	r := newTestRegistry()
	r.CreateList("Stale")

	r.Restore(Fragment{}, createTestSource(3, 4))

	assert.Equal(t, []string{MasterName}, r.Names())
	assert.Equal(t, []domain.ItemID{id(3), id(4)}, r.Master().ActiveIDs())
}

func TestRestore_OnlyActiveItemsJoinMaster(t *testing.T) {
	src := createTestSource(1, 2, 3)
	src[id(2)] = domain.Item{ID: id(2), State: domain.StateCompleted}
	src[id(3)] = domain.Item{ID: id(3), State: domain.StateFailed}

	r := newTestRegistry()
	r.Restore(Fragment{}, src)
	assert.Equal(t, []domain.ItemID{id(1)}, r.Master().ActiveIDs())

	// Finished items already on a list are kept.
	r.Restore(Fragment{Missions: []ListFragment{
		{Name: MasterName, ActiveListID: id(2).String() + "|N|True"},
	}}, src)
	assert.ElementsMatch(t, []domain.ItemID{id(1), id(2)}, r.Master().ActiveIDs())
	assert.False(t, r.Master().Contains(id(3)))
}

func TestRestore_MalformedWindowState(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(zerolog.New(&buf))

	r.Restore(Fragment{WindowPosition: "1,2,x", WindowVisible: "True,False"}, nil)
	for s := domain.SceneFlight; s <= domain.SceneTrackingStation; s++ {
		assert.Equal(t, domain.WindowState{Rect: domain.DefaultRect}, r.Window(s))
	}
	assert.Contains(t, buf.String(), "invalid window positions")
	assert.Contains(t, buf.String(), "wrong number of window visibility flags")

	r.Restore(Fragment{WindowPosition: "1,2,3,4", WindowVisible: "True,maybe,True,True"}, nil)
	assert.Equal(t, domain.DefaultRect, r.Window(domain.SceneFlight).Rect)
	assert.Contains(t, buf.String(), "wrong number of window positions")
	assert.Contains(t, buf.String(), "invalid window visibility")
}

func TestRestore_ReplacesExistingState(t *testing.T) {
	r := createTestRegistry()
	r.Select("Science")

	r.Restore(Fragment{Missions: []ListFragment{{Name: "Other"}}}, nil)

	assert.Equal(t, []string{MasterName, "Other"}, r.Names())
	assert.Equal(t, MasterName, r.Current().Name())
}
