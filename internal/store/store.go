// Package store provides the in-memory mission list engine: named lists of
// item identifiers with per-list view state, the registry that owns them and
// the snapshot used to persist them.
//
// The store is not safe for concurrent use. All mutation and queries are
// expected to run on a single logic goroutine.
package store

import (
	"github.com/robby/cwp/internal/domain"
)

// MasterName is the reserved internal name of the master list, which holds
// every item known to the registry.
const MasterName = "MasterMission"

// idSet is an insertion-ordered set of item identifiers. Order only matters
// for deterministic encoding; membership is what the engine relies on.
type idSet struct {
	index map[domain.ItemID]int
	ids   []domain.ItemID
}

func newIDSet() *idSet {
	return &idSet{index: make(map[domain.ItemID]int)}
}

func (s *idSet) has(id domain.ItemID) bool {
	_, ok := s.index[id]
	return ok
}

// add inserts id and reports whether it was absent.
func (s *idSet) add(id domain.ItemID) bool {
	if s.has(id) {
		return false
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	return true
}

// remove deletes id and reports whether it was present.
func (s *idSet) remove(id domain.ItemID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	delete(s.index, id)
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
	return true
}

func (s *idSet) len() int {
	return len(s.ids)
}

// list returns a copy of the members in insertion order.
func (s *idSet) list() []domain.ItemID {
	out := make([]domain.ItemID, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *idSet) clear() {
	s.index = make(map[domain.ItemID]int)
	s.ids = nil
}
