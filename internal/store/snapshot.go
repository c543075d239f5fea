package store

import (
	"github.com/robby/cwp/internal/codec"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/sortengine"
)

// Fragment is the registry's persisted form inside the host document.
type Fragment struct {
	WindowPosition string         `yaml:"WindowPosition,omitempty"`
	WindowVisible  string         `yaml:"WindowVisible,omitempty"`
	Missions       []ListFragment `yaml:"MISSION,omitempty"`
}

// ListFragment is one persisted MissionList. Pointer fields distinguish a
// missing key from its zero value.
type ListFragment struct {
	Name           string `yaml:"Name"`
	ActiveListID   string `yaml:"ActiveListID"`
	HiddenListID   string `yaml:"HiddenListID"`
	VesselIDs      string `yaml:"VesselIDs"`
	AscendingSort  *bool  `yaml:"AscendingSort,omitempty"`
	ShowActiveList *bool  `yaml:"ShowActiveList,omitempty"`
	SortMode       *int   `yaml:"SortMode,omitempty"`
}

// ItemSource is the subset of an item source Restore consults.
type ItemSource interface {
	sortengine.Lookup
	IDs() []domain.ItemID
}

// Snapshot captures every list and the window state, master first.
func (r *Registry) Snapshot() Fragment {
	frag := Fragment{
		WindowPosition: r.encodeWindowRects(),
		WindowVisible:  r.encodeWindowVisible(),
	}

	for _, name := range r.order {
		l := r.lists[name]
		active, hidden := l.Encode()
		ascending, showActive := l.ascending, l.showActive
		mode := int(l.criterion)

		frag.Missions = append(frag.Missions, ListFragment{
			Name:           l.name,
			ActiveListID:   active,
			HiddenListID:   hidden,
			VesselIDs:      codec.EncodeIDs(l.Associations()),
			AscendingSort:  &ascending,
			ShowActiveList: &showActive,
			SortMode:       &mode,
		})
	}
	return frag
}

// Restore replaces the registry contents with frag. When src is non-nil, ids
// it does not know are dropped and every active item it reports joins master. Restore
// never fails; bad input is logged and skipped.
func (r *Registry) Restore(frag Fragment, src ItemSource) {
	r.reset()
	r.restoreWindows(frag)

	if len(frag.Missions) == 0 {
		if src != nil {
			r.RebuildMasterFromSource(activeIDs(src))
		}
		return
	}

	seen := make(map[string]bool, len(frag.Missions))
	for _, lf := range frag.Missions {
		if lf.Name == "" {
			r.log.Warn().Msg("skipping persisted list without a name")
			continue
		}

		if seen[lf.Name] {
			r.log.Warn().Str("list", lf.Name).Msg("duplicate persisted list, keeping the first")
			continue
		}
		seen[lf.Name] = true

		l := r.lists[lf.Name]
		if l == nil {
			l = NewList(lf.Name, r.log)
		}

		l.Rebuild(lf.ActiveListID, lf.HiddenListID)
		l.SetAssociations(lf.VesselIDs)
		l.SetSort(sortMode(lf.SortMode), boolOr(lf.AscendingSort, true))
		l.showActive = boolOr(lf.ShowActiveList, true)

		if src != nil {
			for _, id := range append(l.ActiveIDs(), l.HiddenIDs()...) {
				if _, ok := src.Get(id); !ok {
					r.log.Debug().Str("list", l.name).Str("id", id.String()).Msg("dropping item unknown to source")
					l.RemoveItem(id)
				}
			}
		}

		if !l.master {
			r.insert(l)
		}
	}

	master := r.Master()
	for _, name := range r.order {
		l := r.lists[name]
		if l.master {
			continue
		}
		for _, id := range l.ActiveIDs() {
			master.AddItem(id, true, false)
		}
		for _, id := range l.HiddenIDs() {
			master.AddItem(id, true, false)
		}
	}
	if src != nil {
		for _, id := range activeIDs(src) {
			master.AddItem(id, true, false)
		}
	}

	r.log.Debug().Int("lists", len(r.order)).Int("items", master.Len()).Msg("restored registry")
}

func activeIDs(src ItemSource) []domain.ItemID {
	var out []domain.ItemID
	for _, id := range src.IDs() {
		if item, ok := src.Get(id); ok && item.State == domain.StateActive {
			out = append(out, id)
		}
	}
	return out
}

func sortMode(v *int) domain.SortCriterion {
	if v == nil {
		return domain.DefaultSort
	}
	c := domain.SortCriterion(*v)
	if !c.Valid() {
		return domain.DefaultSort
	}
	return c
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (r *Registry) encodeWindowRects() string {
	values := make([]int, 0, 4*domain.SceneCount)
	for _, w := range r.windows {
		values = append(values, w.Rect.X, w.Rect.Y, w.Rect.W, w.Rect.H)
	}
	return codec.EncodeInts(values)
}

func (r *Registry) encodeWindowVisible() string {
	values := make([]bool, 0, domain.SceneCount)
	for _, w := range r.windows {
		values = append(values, w.Visible)
	}
	return codec.EncodeBools(values)
}

func (r *Registry) restoreWindows(frag Fragment) {
	r.resetWindows()

	if frag.WindowPosition != "" {
		values, err := codec.DecodeInts(frag.WindowPosition)
		switch {
		case err != nil:
			r.log.Warn().Err(err).Msg("invalid window positions, using defaults")
		case len(values) != 4*domain.SceneCount:
			r.log.Warn().Int("values", len(values)).Msg("wrong number of window positions, using defaults")
		default:
			for i := range r.windows {
				v := values[4*i:]
				r.windows[i].Rect = domain.Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}
			}
		}
	}

	if frag.WindowVisible != "" {
		values, err := codec.DecodeBools(frag.WindowVisible)
		switch {
		case err != nil:
			r.log.Warn().Err(err).Msg("invalid window visibility, using defaults")
		case len(values) != domain.SceneCount:
			r.log.Warn().Int("values", len(values)).Msg("wrong number of window visibility flags, using defaults")
		default:
			for i := range r.windows {
				r.windows[i].Visible = values[i]
			}
		}
	}
}
