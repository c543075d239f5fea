package source

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/robby/cwp/internal/domain"
)

// eventBuffer is the capacity of a Memory source's event channel. Events are
// dropped with a warning when the consumer falls this far behind.
const eventBuffer = 64

// Memory is a thread-safe in-memory Source that notifies on changes. The file
// and GraphQL sources keep their items in one.
type Memory struct {
	mu    sync.RWMutex
	items map[domain.ItemID]domain.Item
	order []domain.ItemID

	events chan Event
	log    zerolog.Logger
}

var (
	_ Source   = (*Memory)(nil)
	_ Notifier = (*Memory)(nil)
)

// NewMemory creates a source holding items, in order.
func NewMemory(log zerolog.Logger, items ...domain.Item) *Memory {
	m := &Memory{
		items:  make(map[domain.ItemID]domain.Item, len(items)),
		events: make(chan Event, eventBuffer),
		log:    log,
	}
	for _, item := range items {
		if _, dup := m.items[item.ID]; dup {
			continue
		}
		m.items[item.ID] = item
		m.order = append(m.order, item.ID)
	}
	return m
}

// Get returns the item with the given id.
func (m *Memory) Get(id domain.ItemID) (domain.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	return item, ok
}

// IDs returns every item id in insertion order.
func (m *Memory) IDs() []domain.ItemID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ItemID, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Events returns the change notification channel.
func (m *Memory) Events() <-chan Event {
	return m.events
}

// Put inserts or updates an item and emits the matching event.
func (m *Memory) Put(item domain.Item) {
	m.mu.Lock()
	ev, changed := m.put(item)
	m.mu.Unlock()

	if changed {
		m.emit(ev)
	}
}

// Delete removes an item. It returns ErrNotFound when id is unknown.
func (m *Memory) Delete(id domain.ItemID) error {
	m.mu.Lock()
	if _, ok := m.items[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.delete(id)
	m.mu.Unlock()

	m.emit(Event{Kind: EventRemoved, ID: id})
	return nil
}

// Replace swaps the full item set, emitting an event for every added,
// removed or state-changed item.
func (m *Memory) Replace(items []domain.Item) {
	m.mu.Lock()
	var events []Event

	keep := make(map[domain.ItemID]bool, len(items))
	for _, item := range items {
		keep[item.ID] = true
	}
	for _, id := range append([]domain.ItemID(nil), m.order...) {
		if !keep[id] {
			m.delete(id)
			events = append(events, Event{Kind: EventRemoved, ID: id})
		}
	}

	for _, item := range items {
		if ev, changed := m.put(item); changed {
			events = append(events, ev)
		}
	}
	m.mu.Unlock()

	for _, ev := range events {
		m.emit(ev)
	}
}

// put stores item and reports the event it causes, if any. Callers hold mu.
func (m *Memory) put(item domain.Item) (Event, bool) {
	prev, exists := m.items[item.ID]
	m.items[item.ID] = item
	if !exists {
		m.order = append(m.order, item.ID)
		return Event{Kind: EventAdded, ID: item.ID, State: item.State}, true
	}
	if prev.State != item.State {
		return Event{Kind: EventStateChanged, ID: item.ID, State: item.State}, true
	}
	return Event{}, false
}

func (m *Memory) delete(id domain.ItemID) {
	delete(m.items, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Memory) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.log.Warn().Str("event", ev.Kind.String()).Str("id", ev.ID.String()).Msg("event buffer full, dropping source event")
	}
}
