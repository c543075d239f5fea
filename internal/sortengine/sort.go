// Package sortengine computes the display order of a list's members.
//
// Pinned members always come first, ordered by their pin slot. The remaining
// members are ordered by the selected criterion, then by title and finally by
// identifier so that the result is a total order regardless of input order.
package sortengine

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/robby/cwp/internal/domain"
)

// Lookup resolves item identifiers to the item data used as sort keys.
type Lookup interface {
	Get(id domain.ItemID) (domain.Item, bool)
}

// Member is one list member as seen by the sort.
type Member struct {
	ID  domain.ItemID
	Pin *int // nil when unpinned
}

// Classifier reports whether an item belongs to the sub-group re-sorted after a
// Type sort, and the secondary key used to order that sub-group.
type Classifier func(item domain.Item) (key float64, ok bool)

// AltitudeEnvelope classifies items by their tagged category and orders them by
// minimum altitude.
func AltitudeEnvelope(item domain.Item) (float64, bool) {
	if item.Category != domain.CategoryAltitudeEnvelope {
		return 0, false
	}
	return item.Threshold, true
}

// Options controls a single ordering pass.
type Options struct {
	Criterion domain.SortCriterion
	Ascending bool
	// Now is the reference time for the Expiration criterion.
	Now time.Time
	// Classify selects the Type sub-group; nil means AltitudeEnvelope.
	Classify Classifier
}

type resolved struct {
	item domain.Item
	pin  int
}

// Order returns member identifiers in display order. Members the lookup cannot
// resolve are left out.
func Order(members []Member, items Lookup, opts Options) []domain.ItemID {
	var pinned, unpinned []resolved
	for _, m := range members {
		item, ok := items.Get(m.ID)
		if !ok {
			continue
		}
		// Items carry their own ID, but the member ID is authoritative.
		item.ID = m.ID
		if m.Pin != nil {
			pinned = append(pinned, resolved{item: item, pin: *m.Pin})
		} else {
			unpinned = append(unpinned, resolved{item: item})
		}
	}

	// Pin order is an explicit user choice and ignores the sort direction.
	slices.SortStableFunc(pinned, func(a, b resolved) int {
		if c := cmp.Compare(a.pin, b.pin); c != 0 {
			return c
		}
		return compareIDs(a.item, b.item)
	})

	primary := primaryKey(opts.Criterion, opts.Now)
	slices.SortStableFunc(unpinned, func(a, b resolved) int {
		return directed(opts.Ascending, primary(a.item, b.item), a.item, b.item)
	})

	if opts.Criterion == domain.SortType {
		classify := opts.Classify
		if classify == nil {
			classify = AltitudeEnvelope
		}
		reorderMatching(unpinned,
			func(r resolved) bool {
				_, ok := classify(r.item)
				return ok
			},
			func(a, b resolved) int {
				ka, _ := classify(a.item)
				kb, _ := classify(b.item)
				return directed(opts.Ascending, cmp.Compare(ka, kb), a.item, b.item)
			},
		)
	}

	out := make([]domain.ItemID, 0, len(pinned)+len(unpinned))
	for _, r := range pinned {
		out = append(out, r.item.ID)
	}
	for _, r := range unpinned {
		out = append(out, r.item.ID)
	}
	return out
}

// reorderMatching sorts the elements selected by match among the positions
// they already occupy, leaving every other element in place. Nothing moves
// unless at least two elements match.
func reorderMatching[T any](seq []T, match func(T) bool, compare func(a, b T) int) {
	var positions []int
	var group []T
	for i, v := range seq {
		if match(v) {
			positions = append(positions, i)
			group = append(group, v)
		}
	}
	if len(group) < 2 {
		return
	}

	slices.SortStableFunc(group, compare)
	for i, pos := range positions {
		seq[pos] = group[i]
	}
}

// directed applies the sort direction to a primary comparison and its
// title and identifier tie-breaks.
func directed(ascending bool, primary int, a, b domain.Item) int {
	c := primary
	if c == 0 {
		c = strings.Compare(a.Title, b.Title)
	}
	if c == 0 {
		c = compareIDs(a, b)
	}
	if !ascending {
		return -c
	}
	return c
}

func compareIDs(a, b domain.Item) int {
	return strings.Compare(a.ID.String(), b.ID.String())
}

func primaryKey(c domain.SortCriterion, now time.Time) func(a, b domain.Item) int {
	switch c {
	case domain.SortPlanet:
		return func(a, b domain.Item) int { return strings.Compare(a.Planet, b.Planet) }
	case domain.SortExpiration:
		return func(a, b domain.Item) int { return cmp.Compare(a.Remaining(now), b.Remaining(now)) }
	case domain.SortAcceptance:
		return func(a, b domain.Item) int { return a.Accepted.Compare(b.Accepted) }
	case domain.SortReward:
		return func(a, b domain.Item) int { return cmp.Compare(a.Reward, b.Reward) }
	case domain.SortType:
		return func(a, b domain.Item) int { return strings.Compare(a.Type, b.Type) }
	default:
		return func(a, b domain.Item) int { return cmp.Compare(a.Difficulty, b.Difficulty) }
	}
}
