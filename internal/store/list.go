package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robby/cwp/internal/codec"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/sortengine"
)

// MissionList is a named collection of item identifiers split into an active
// and a hidden partition. Each member has exactly one ItemView.
type MissionList struct {
	name   string
	master bool

	active *idSet
	hidden *idSet
	views  map[domain.ItemID]*ItemView

	criterion  domain.SortCriterion
	ascending  bool
	showActive bool

	// External entities (vessels) associated with this list.
	associations *idSet

	// Next pin slot; only ever grows while the list exists.
	nextPin int

	log zerolog.Logger
}

// NewList creates an empty list with default sort settings.
func NewList(name string, log zerolog.Logger) *MissionList {
	return &MissionList{
		name:         name,
		master:       name == MasterName,
		active:       newIDSet(),
		hidden:       newIDSet(),
		views:        make(map[domain.ItemID]*ItemView),
		criterion:    domain.DefaultSort,
		ascending:    true,
		showActive:   true,
		associations: newIDSet(),
		log:          log,
	}
}

// Name returns the list's internal name.
func (l *MissionList) Name() string { return l.name }

// IsMaster reports whether this is the registry's master list.
func (l *MissionList) IsMaster() bool { return l.master }

// Criterion returns the sort criterion.
func (l *MissionList) Criterion() domain.SortCriterion { return l.criterion }

// Ascending returns the sort direction.
func (l *MissionList) Ascending() bool { return l.ascending }

// ShowActive reports whether the list displays its active partition.
func (l *MissionList) ShowActive() bool { return l.showActive }

// SetShowHidden switches the displayed partition.
func (l *MissionList) SetShowHidden(hidden bool) { l.showActive = !hidden }

// Len returns the number of members across both partitions.
func (l *MissionList) Len() int { return len(l.views) }

// ActiveCount returns the number of active members.
func (l *MissionList) ActiveCount() int { return l.active.len() }

// HiddenCount returns the number of hidden members.
func (l *MissionList) HiddenCount() int { return l.hidden.len() }

// ActiveIDs returns the active partition in insertion order.
func (l *MissionList) ActiveIDs() []domain.ItemID { return l.active.list() }

// HiddenIDs returns the hidden partition in insertion order.
func (l *MissionList) HiddenIDs() []domain.ItemID { return l.hidden.list() }

// Contains reports whether id is a member of either partition.
func (l *MissionList) Contains(id domain.ItemID) bool {
	_, ok := l.views[id]
	return ok
}

// View returns a copy of the member's view.
func (l *MissionList) View(id domain.ItemID) (ItemView, bool) {
	v, ok := l.views[id]
	if !ok {
		return ItemView{}, false
	}
	return copyView(v), true
}

// AddItem inserts id into the requested partition with a fresh view. It is a
// no-op when id is already a member; warn logs that case.
func (l *MissionList) AddItem(id domain.ItemID, active, warn bool) bool {
	if l.Contains(id) {
		if warn {
			l.log.Warn().Str("list", l.name).Str("id", id.String()).Msg("list already contains item")
		}
		return false
	}

	if active {
		l.active.add(id)
	} else {
		l.hidden.add(id)
	}
	l.views[id] = newView(id, active)
	return true
}

// RemoveItem removes id and its view. It reports whether id was a member.
func (l *MissionList) RemoveItem(id domain.ItemID) bool {
	if !l.Contains(id) {
		return false
	}
	l.active.remove(id)
	l.hidden.remove(id)
	delete(l.views, id)
	return true
}

// SetHidden moves id between partitions. Hiding clears the pin and collapses
// details; unhiding expands details.
func (l *MissionList) SetHidden(id domain.ItemID, hidden bool) bool {
	v, ok := l.views[id]
	if !ok || v.Hidden == hidden {
		return false
	}

	if hidden {
		l.active.remove(id)
		l.hidden.add(id)
		v.Pin = nil
		v.DetailsVisible = false
	} else {
		l.hidden.remove(id)
		l.active.add(id)
		v.DetailsVisible = true
	}
	v.Hidden = hidden
	return true
}

// SetDetailsVisible sets whether the member's details are expanded.
func (l *MissionList) SetDetailsVisible(id domain.ItemID, visible bool) bool {
	v, ok := l.views[id]
	if !ok {
		return false
	}
	v.DetailsVisible = visible
	return true
}

// PinnedCount returns the number of pinned members.
func (l *MissionList) PinnedCount() int {
	n := 0
	for _, v := range l.views {
		if v.Pin != nil {
			n++
		}
	}
	return n
}

// Pin assigns the next pin slot to an active member. Non-members, hidden
// members and already pinned members are left unchanged.
func (l *MissionList) Pin(id domain.ItemID) bool {
	v, ok := l.views[id]
	if !ok || v.Hidden || v.Pin != nil {
		return false
	}

	slot := max(l.PinnedCount(), l.nextPin)
	v.Pin = &slot
	l.nextPin = slot + 1
	return true
}

// Unpin clears the member's pin slot. Remaining slots are not renumbered.
func (l *MissionList) Unpin(id domain.ItemID) bool {
	v, ok := l.views[id]
	if !ok || v.Pin == nil {
		return false
	}
	v.Pin = nil
	return true
}

// SetSort updates the criterion and direction used by the next OrderedView.
func (l *MissionList) SetSort(criterion domain.SortCriterion, ascending bool) {
	if !criterion.Valid() {
		criterion = domain.DefaultSort
	}
	l.criterion = criterion
	l.ascending = ascending
}

// OrderedView returns the displayed partition in display order.
func (l *MissionList) OrderedView(items sortengine.Lookup, now time.Time) []domain.ItemID {
	return l.OrderedPartition(l.showActive, items, now)
}

// OrderedPartition returns the active or hidden partition in display order.
func (l *MissionList) OrderedPartition(active bool, items sortengine.Lookup, now time.Time) []domain.ItemID {
	set := l.hidden
	if active {
		set = l.active
	}

	members := make([]sortengine.Member, 0, set.len())
	for _, id := range set.ids {
		members = append(members, sortengine.Member{ID: id, Pin: l.views[id].Pin})
	}

	return sortengine.Order(members, items, sortengine.Options{
		Criterion: l.criterion,
		Ascending: l.ascending,
		Now:       now,
	})
}

// Encode returns the codec strings for the active and hidden partitions.
func (l *MissionList) Encode() (active, hidden string) {
	return codec.Encode(l.entries(l.active)), codec.Encode(l.entries(l.hidden))
}

func (l *MissionList) entries(set *idSet) []codec.Entry {
	out := make([]codec.Entry, 0, set.len())
	for _, id := range set.ids {
		v := l.views[id]
		out = append(out, codec.Entry{ID: id, Pin: v.Pin, DetailsVisible: v.DetailsVisible})
	}
	return out
}

// Rebuild clears the list's membership and repopulates it from encoded
// partition strings. Malformed and duplicate entries are skipped.
func (l *MissionList) Rebuild(activeEncoded, hiddenEncoded string) {
	l.clearMembers()

	l.restore(codec.Decode(activeEncoded, l.log), true)
	l.restore(codec.Decode(hiddenEncoded, l.log), false)

	// Pin slots must stay distinct; the first holder of a slot keeps it.
	taken := make(map[int]bool)
	for _, id := range l.active.ids {
		v := l.views[id]
		if v.Pin == nil {
			continue
		}
		if taken[*v.Pin] {
			l.log.Warn().Str("list", l.name).Str("id", id.String()).Int("slot", *v.Pin).Msg("duplicate pin slot, unpinning")
			v.Pin = nil
			continue
		}
		taken[*v.Pin] = true
		l.nextPin = max(l.nextPin, *v.Pin+1)
	}

	l.log.Debug().
		Str("list", l.name).
		Int("active", l.active.len()).
		Int("hidden", l.hidden.len()).
		Msg("rebuilt mission list")
}

func (l *MissionList) restore(entries []codec.Entry, active bool) {
	for _, e := range entries {
		if !l.AddItem(e.ID, active, true) {
			continue
		}
		v := l.views[e.ID]
		v.DetailsVisible = e.DetailsVisible
		if active && e.Pin != nil {
			slot := *e.Pin
			v.Pin = &slot
		}
	}
}

// clearMembers drops every member and resets pin numbering.
func (l *MissionList) clearMembers() {
	l.active.clear()
	l.hidden.clear()
	l.views = make(map[domain.ItemID]*ItemView)
	l.nextPin = 0
}

// Associate links an external entity to the list.
func (l *MissionList) Associate(entity uuid.UUID) bool {
	return l.associations.add(entity)
}

// Dissociate unlinks an external entity.
func (l *MissionList) Dissociate(entity uuid.UUID) bool {
	return l.associations.remove(entity)
}

// HasAssociation reports whether entity is linked to the list.
func (l *MissionList) HasAssociation(entity uuid.UUID) bool {
	return l.associations.has(entity)
}

// Associations returns the linked entities in insertion order.
func (l *MissionList) Associations() []uuid.UUID {
	return l.associations.list()
}

// SetAssociations replaces the linked entities from a comma-joined string.
func (l *MissionList) SetAssociations(encoded string) {
	l.associations.clear()
	for _, id := range codec.DecodeIDs(encoded, l.log) {
		l.associations.add(id)
	}
}
