package document

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/cwp/internal/store"
)

const hostDocument = `Game:
  Title: Career
  Funds: 125000
Science:
  Points: 42
`

func boolPtr(b bool) *bool { return &b }
func intPtr(v int) *int    { return &v }

func createTestFragment() store.Fragment {
	return store.Fragment{
		WindowPosition: "50,-80,250,300,50,-80,250,300,50,-80,250,300,50,-80,250,300",
		WindowVisible:  "True,False,False,False",
		Missions: []store.ListFragment{
			{
				Name:           store.MasterName,
				ActiveListID:   "01010101-0101-0101-0101-010101010101|N|True",
				AscendingSort:  boolPtr(true),
				ShowActiveList: boolPtr(true),
				SortMode:       intPtr(4),
			},
			{
				Name:           "Science",
				ActiveListID:   "01010101-0101-0101-0101-010101010101|0|True",
				HiddenListID:   "",
				VesselIDs:      "05050505-0505-0505-0505-050505050505",
				AscendingSort:  boolPtr(false),
				ShowActiveList: boolPtr(true),
				SortMode:       intPtr(3),
			},
		},
	}
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "persistent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocument_SaveAndLoad(t *testing.T) {
	path := writeDoc(t, hostDocument)
	doc := New(path, "", zerolog.Nop())
	frag := createTestFragment()

	require.NoError(t, doc.Save(frag))

	got, err := doc.Load()
	require.NoError(t, err)
	assert.Equal(t, frag, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Title: Career", "host keys are preserved")
	assert.Contains(t, string(data), "Points: 42")
	assert.Contains(t, string(data), DefaultSection+":")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file is renamed away")
}

func TestDocument_SaveReplacesSection(t *testing.T) {
	path := writeDoc(t, hostDocument)
	doc := New(path, "", zerolog.Nop())

	require.NoError(t, doc.Save(createTestFragment()))
	require.NoError(t, doc.Save(store.Fragment{Missions: []store.ListFragment{{Name: store.MasterName}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte(DefaultSection+":")))

	got, err := doc.Load()
	require.NoError(t, err)
	require.Len(t, got.Missions, 1)
	assert.Equal(t, store.MasterName, got.Missions[0].Name)
}

func TestDocument_SaveCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "save.yaml")
	doc := New(path, "Custom_Section", zerolog.Nop())

	require.NoError(t, doc.Save(createTestFragment()))

	got, err := doc.Load()
	require.NoError(t, err)
	assert.Len(t, got.Missions, 2)
	assert.Equal(t, "Custom_Section", doc.Section())
}

func TestDocument_LoadMissing(t *testing.T) {
	doc := New(filepath.Join(t.TempDir(), "absent.yaml"), "", zerolog.Nop())

	_, err := doc.Load()
	assert.ErrorIs(t, err, ErrNoSection)
}

func TestDocument_LoadWithoutSection(t *testing.T) {
	doc := New(writeDoc(t, hostDocument), "", zerolog.Nop())

	_, err := doc.Load()
	assert.ErrorIs(t, err, ErrNoSection)

	empty := New(writeDoc(t, ""), "", zerolog.Nop())
	_, err = empty.Load()
	assert.ErrorIs(t, err, ErrNoSection)
}

func TestDocument_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "Game: [unterminated\n"},
		{"top level list", "- a\n- b\n"},
		{"section wrong shape", DefaultSection + ":\n  MISSION: not-a-list\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New(writeDoc(t, tt.content), "", zerolog.Nop())
			_, err := doc.Load()
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDocument_SaveOverCorrupt(t *testing.T) {
	var buf bytes.Buffer
	path := writeDoc(t, "Game: [unterminated\n")
	doc := New(path, "", zerolog.New(&buf))

	require.NoError(t, doc.Save(createTestFragment()))
	assert.Contains(t, buf.String(), "existing document is corrupt")

	_, err := doc.Load()
	assert.NoError(t, err)

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "Game: [unterminated\n", string(bak))
}

func TestDocument_SaveKeepsNoBackupWhenReadable(t *testing.T) {
	path := writeDoc(t, hostDocument)
	doc := New(path, "", zerolog.Nop())

	require.NoError(t, doc.Save(createTestFragment()))

	_, err := os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestDocument_Watch(t *testing.T) {
	path := writeDoc(t, hostDocument)
	doc := New(path, "", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := doc.Watch(ctx)
	require.NoError(t, err)

	// Our own save is not reported.
	require.NoError(t, doc.Save(createTestFragment()))
	select {
	case <-changes:
		t.Fatal("own save reported as external change")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte(hostDocument+"Extra: 1\n"), 0o644))
	select {
	case _, ok := <-changes:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("external change not reported")
	}

	cancel()
	select {
	case _, ok := <-changes:
		for ok {
			_, ok = <-changes
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
