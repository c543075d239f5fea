// Package source provides the item sources the mission list engine reads
// contract data from: an in-memory table, a TOML roster file and a remote
// GraphQL endpoint. The engine only ever stores identifiers; every other item
// attribute is resolved through a Source at display time.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/robby/cwp/internal/domain"
)

// ErrNotFound is returned when an item id is not known to a source.
var ErrNotFound = errors.New("item not found")

// Source resolves item identifiers and enumerates the known items.
type Source interface {
	Get(id domain.ItemID) (domain.Item, bool)
	IDs() []domain.ItemID
}

// Refresher is implemented by sources whose contents are pulled from
// somewhere else and must be re-read periodically.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// EventKind classifies a source change notification.
type EventKind int

const (
	EventAdded EventKind = iota
	EventStateChanged
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventStateChanged:
		return "state_changed"
	case EventRemoved:
		return "removed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event reports one change observed by a source.
type Event struct {
	Kind  EventKind
	ID    domain.ItemID
	State domain.State // State after the change; zero for EventRemoved
}

// Notifier is implemented by sources that push change notifications.
type Notifier interface {
	Events() <-chan Event
}

// Lookup returns the item for id or ErrNotFound.
func Lookup(src Source, id domain.ItemID) (domain.Item, error) {
	item, ok := src.Get(id)
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, nil
}

// ActiveIDs returns the ids of the source's active items in source order.
func ActiveIDs(src Source) []domain.ItemID {
	var out []domain.ItemID
	for _, id := range src.IDs() {
		if item, ok := src.Get(id); ok && item.State == domain.StateActive {
			out = append(out, id)
		}
	}
	return out
}
