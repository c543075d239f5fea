package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/robby/cwp/internal/domain"
)

// Test fixtures
var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func id(n byte) domain.ItemID {
	var u uuid.UUID
	for i := range u {
		u[i] = n
	}
	return u
}

type fakeSource map[domain.ItemID]domain.Item

func (f fakeSource) Get(id domain.ItemID) (domain.Item, bool) {
	item, ok := f[id]
	return item, ok
}

// IDs returns identifiers ordered by their first byte for stable assertions.
func (f fakeSource) IDs() []domain.ItemID {
	var out []domain.ItemID
	for n := 0; n < 256; n++ {
		if _, ok := f[id(byte(n))]; ok {
			out = append(out, id(byte(n)))
		}
	}
	return out
}

func createTestSource(ns ...byte) fakeSource {
	src := make(fakeSource, len(ns))
	for _, n := range ns {
		src[id(n)] = domain.Item{
			ID:         id(n),
			Title:      string(rune('a' + n)),
			Difficulty: int(n),
		}
	}
	return src
}

func newTestList(name string) *MissionList {
	return NewList(name, zerolog.Nop())
}

func TestIDSet(t *testing.T) {
	s := newIDSet()

	assert.True(t, s.add(id(1)))
	assert.True(t, s.add(id(2)))
	assert.True(t, s.add(id(3)))
	assert.False(t, s.add(id(2)))
	assert.Equal(t, 3, s.len())

	assert.True(t, s.remove(id(1)))
	assert.False(t, s.remove(id(1)))
	assert.Equal(t, []domain.ItemID{id(2), id(3)}, s.list())
	assert.True(t, s.has(id(3)))

	// Indices stay valid after removal.
	assert.True(t, s.remove(id(3)))
	assert.Equal(t, []domain.ItemID{id(2)}, s.list())

	s.clear()
	assert.Equal(t, 0, s.len())
	assert.False(t, s.has(id(2)))
}

func TestIDSet_ListIsCopy(t *testing.T) {
	s := newIDSet()
	s.add(id(1))

	out := s.list()
	out[0] = id(9)

	assert.True(t, s.has(id(1)))
	assert.Equal(t, []domain.ItemID{id(1)}, s.list())
}

func TestNewView(t *testing.T) {
	active := newView(id(1), true)
	assert.False(t, active.Hidden)
	assert.True(t, active.DetailsVisible)
	assert.False(t, active.Pinned())

	hidden := newView(id(2), false)
	assert.True(t, hidden.Hidden)
	assert.False(t, hidden.DetailsVisible)
}

func TestCopyView_DetachesPin(t *testing.T) {
	slot := 3
	v := &ItemView{ID: id(1), Pin: &slot}

	c := copyView(v)
	*c.Pin = 7

	assert.Equal(t, 3, *v.Pin)
}
