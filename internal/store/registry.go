package store

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robby/cwp/internal/domain"
)

// Registry owns every MissionList, including the master list, and tracks the
// current selection and per-scene window state.
type Registry struct {
	lists   map[string]*MissionList
	order   []string // insertion order of list names
	current string

	windows [domain.SceneCount]domain.WindowState

	log zerolog.Logger
}

// NewRegistry creates a registry holding only an empty master list.
func NewRegistry(log zerolog.Logger) *Registry {
	r := &Registry{log: log}
	r.reset()
	r.resetWindows()
	return r
}

// reset drops every list and recreates an empty master list.
func (r *Registry) reset() {
	r.lists = make(map[string]*MissionList)
	r.order = nil
	r.insert(NewList(MasterName, r.log))
	r.current = MasterName
}

func (r *Registry) insert(l *MissionList) {
	r.lists[l.name] = l
	r.order = append(r.order, l.name)
}

func (r *Registry) drop(name string) {
	delete(r.lists, name)
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// Master returns the master list.
func (r *Registry) Master() *MissionList {
	return r.lists[MasterName]
}

// List returns the named list, or nil when it does not exist.
func (r *Registry) List(name string) *MissionList {
	return r.lists[name]
}

// Names returns every list name in registry order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Current returns the selected list.
func (r *Registry) Current() *MissionList {
	if l, ok := r.lists[r.current]; ok {
		return l
	}
	return r.Master()
}

// CreateList adds an empty list. It fails when name is blank or already used,
// including the reserved master name.
func (r *Registry) CreateList(name string) bool {
	if strings.TrimSpace(name) == "" {
		r.log.Warn().Msg("refusing to create list with blank name")
		return false
	}
	if _, exists := r.lists[name]; exists {
		r.log.Warn().Str("list", name).Msg("list name already in use")
		return false
	}
	r.insert(NewList(name, r.log))
	return true
}

// NewListWithItem creates a list seeded with one active item. The item is
// added to master as well so the superset invariant holds.
func (r *Registry) NewListWithItem(name string, id domain.ItemID) bool {
	if !r.CreateList(name) {
		return false
	}
	r.Master().AddItem(id, true, false)
	r.lists[name].AddItem(id, true, true)
	return true
}

// RemoveList deletes a non-master list. The selection falls back to master
// when it pointed at the removed list.
func (r *Registry) RemoveList(name string) bool {
	if name == MasterName {
		r.log.Warn().Msg("master list cannot be removed")
		return false
	}
	if _, ok := r.lists[name]; !ok {
		r.log.Warn().Str("list", name).Msg("no list with that name")
		return false
	}
	r.drop(name)
	if r.current == name {
		r.current = MasterName
	}
	return true
}

// RenameList gives a non-master list a new name. It fails without changes
// when the new name is blank or taken.
func (r *Registry) RenameList(oldName, newName string) bool {
	l, ok := r.lists[oldName]
	if !ok || l.master {
		return false
	}
	if strings.TrimSpace(newName) == "" || newName == oldName {
		return false
	}
	if _, taken := r.lists[newName]; taken {
		r.log.Warn().Str("list", newName).Msg("list name already in use")
		return false
	}

	i := slices.Index(r.order, oldName)
	delete(r.lists, oldName)
	l.name = newName
	r.lists[newName] = l
	r.order[i] = newName
	if r.current == oldName {
		r.current = newName
	}
	return true
}

// Select makes name the current list. Unknown names select master.
func (r *Registry) Select(name string) {
	if _, ok := r.lists[name]; !ok {
		r.log.Debug().Str("list", name).Msg("unknown list selected, using master")
		name = MasterName
	}
	r.current = name
}

// AllLists returns master first, then the other lists by active member count
// (largest first) and name.
func (r *Registry) AllLists() []*MissionList {
	others := make([]*MissionList, 0, len(r.lists)-1)
	for _, name := range r.order {
		if name != MasterName {
			others = append(others, r.lists[name])
		}
	}

	slices.SortFunc(others, func(a, b *MissionList) int {
		if c := cmp.Compare(b.ActiveCount(), a.ActiveCount()); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	return append([]*MissionList{r.Master()}, others...)
}

// AddItemEverywhere adds id to master and, when toCurrent is set and a
// non-master list is selected, to that list too.
func (r *Registry) AddItemEverywhere(id domain.ItemID, active, toCurrent bool) {
	r.Master().AddItem(id, active, false)

	if cur := r.Current(); toCurrent && !cur.master {
		cur.AddItem(id, active, true)
	}
}

// AddItem adds id to a named list, and to master when needed. It reports
// whether the list exists.
func (r *Registry) AddItem(name string, id domain.ItemID, active bool) bool {
	l, ok := r.lists[name]
	if !ok {
		return false
	}
	r.Master().AddItem(id, true, false)
	if !l.master {
		l.AddItem(id, active, true)
	}
	return true
}

// RemoveItem removes id from a named list. Removing from master removes it
// from every list.
func (r *Registry) RemoveItem(name string, id domain.ItemID) bool {
	if name == MasterName {
		return r.RemoveItemEverywhere(id)
	}
	l, ok := r.lists[name]
	if !ok {
		return false
	}
	return l.RemoveItem(id)
}

// RemoveItemEverywhere removes id from every list and reports whether any
// list held it.
func (r *Registry) RemoveItemEverywhere(id domain.ItemID) bool {
	removed := false
	for _, l := range r.lists {
		if l.RemoveItem(id) {
			removed = true
		}
	}
	return removed
}

// ListsContaining returns the lists that hold id, in registry order.
func (r *Registry) ListsContaining(id domain.ItemID) []*MissionList {
	var out []*MissionList
	for _, name := range r.order {
		if l := r.lists[name]; l.Contains(id) {
			out = append(out, l)
		}
	}
	return out
}

// RebuildMasterFromSource repopulates master from the ids the item source
// reports. Other lists lose any id that master no longer holds.
func (r *Registry) RebuildMasterFromSource(ids []domain.ItemID) {
	master := r.Master()
	master.clearMembers()
	for _, id := range ids {
		master.AddItem(id, true, false)
	}
	r.enforceMasterSuperset()

	r.log.Info().Int("items", master.Len()).Msg("rebuilt master list from item source")
}

// enforceMasterSuperset drops ids from non-master lists that master lacks.
func (r *Registry) enforceMasterSuperset() {
	master := r.Master()
	for _, l := range r.lists {
		if l.master {
			continue
		}
		for id := range l.views {
			if !master.Contains(id) {
				l.RemoveItem(id)
			}
		}
	}
}

// Reset discards every list and regenerates a master-only registry from ids.
// Window state is kept.
func (r *Registry) Reset(ids []domain.ItemID) {
	r.reset()
	r.RebuildMasterFromSource(ids)
}

// ListForAssociation returns the first list, in registry order, associated
// with entity. Master is returned when none is.
func (r *Registry) ListForAssociation(entity uuid.UUID) *MissionList {
	for _, name := range r.order {
		if l := r.lists[name]; l.HasAssociation(entity) {
			return l
		}
	}
	return r.Master()
}

// TrackAssociation moves entity to the current list: the current list gains
// it and every other list loses it.
func (r *Registry) TrackAssociation(entity uuid.UUID) {
	cur := r.Current()
	for _, l := range r.lists {
		if l == cur {
			l.Associate(entity)
		} else {
			l.Dissociate(entity)
		}
	}
}

func (r *Registry) resetWindows() {
	for i := range r.windows {
		r.windows[i] = domain.WindowState{Rect: domain.DefaultRect}
	}
}

// Window returns the persisted window state for a scene.
func (r *Registry) Window(scene domain.Scene) domain.WindowState {
	if scene < 0 || int(scene) >= domain.SceneCount {
		scene = domain.SceneFlight
	}
	return r.windows[scene]
}

// SetWindow stores the window state for a scene. Out of range scenes are ignored.
func (r *Registry) SetWindow(scene domain.Scene, w domain.WindowState) {
	if scene < 0 || int(scene) >= domain.SceneCount {
		return
	}
	r.windows[scene] = w
}
