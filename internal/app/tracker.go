// Package app wires the mission list registry to an item source and the host
// save document. The Tracker is the single owner of the registry; every
// presentation layer goes through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robby/cwp/internal/document"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/logging"
	"github.com/robby/cwp/internal/source"
	"github.com/robby/cwp/internal/store"
)

var (
	// ErrUnknownList is returned when a list name does not resolve.
	ErrUnknownList = errors.New("unknown list")
	// ErrRejected is returned when an operation was refused and nothing changed.
	ErrRejected = errors.New("operation had no effect")
	// ErrAmbiguousItem is returned when an item reference matches several items.
	ErrAmbiguousItem = errors.New("ambiguous item reference")
)

// DefaultRefreshInterval is how often Run re-syncs with the item source.
const DefaultRefreshInterval = 5 * time.Second

// Options configures a Tracker.
type Options struct {
	Scene           domain.Scene
	Vessel          uuid.UUID // Active vessel; uuid.Nil when there is none
	RefreshInterval time.Duration
	Now             func() time.Time
	// OnChange is called by Run after every refresh, reload or source event.
	OnChange func(*Tracker)
}

// Tracker owns a Registry and keeps it in step with an item source and a
// save document. It is not safe for concurrent use.
type Tracker struct {
	reg  *store.Registry
	src  source.Source
	doc  *document.Document
	opts Options
	log  zerolog.Logger
}

// New creates a Tracker. doc may be nil for a tracker without persistence.
func New(src source.Source, doc *document.Document, opts Options, log zerolog.Logger) *Tracker {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log = logging.Component(log, "tracker")
	return &Tracker{
		reg:  store.NewRegistry(log),
		src:  src,
		doc:  doc,
		opts: opts,
		log:  log,
	}
}

// Registry exposes the underlying registry.
func (t *Tracker) Registry() *store.Registry { return t.reg }

// Source returns the item source.
func (t *Tracker) Source() source.Source { return t.src }

// Vessel returns the configured active vessel, uuid.Nil when there is none.
func (t *Tracker) Vessel() uuid.UUID { return t.opts.Vessel }

// Load pulls the item source and restores the registry from the document.
// A missing section starts a fresh master-only registry; a corrupt one is
// reset with a warning. The list associated with the active vessel, if any,
// becomes current.
func (t *Tracker) Load(ctx context.Context) error {
	if err := t.pull(ctx); err != nil {
		return err
	}
	t.drainEvents(false)

	if t.doc == nil {
		t.reg.Reset(source.ActiveIDs(t.src))
		return nil
	}

	frag, err := t.doc.Load()
	switch {
	case errors.Is(err, document.ErrNoSection):
		t.log.Debug().Str("path", t.doc.Path()).Msg("no saved mission lists, starting fresh")
		t.reg.Reset(source.ActiveIDs(t.src))
	case errors.Is(err, document.ErrCorrupt):
		t.log.Warn().Err(err).Str("path", t.doc.Path()).Msg("saved mission lists unreadable, resetting to master list")
		t.reg.Reset(source.ActiveIDs(t.src))
	case err != nil:
		return fmt.Errorf("loading mission lists: %w", err)
	default:
		t.reg.Restore(frag, t.src)
	}

	if t.opts.Vessel != uuid.Nil {
		t.reg.Select(t.reg.ListForAssociation(t.opts.Vessel).Name())
	}
	return nil
}

// Reload re-reads the document, keeping the current selection when the list
// still exists.
func (t *Tracker) Reload(ctx context.Context) error {
	current := t.reg.Current().Name()
	if err := t.Load(ctx); err != nil {
		return err
	}
	if t.reg.List(current) != nil {
		t.reg.Select(current)
	}
	return nil
}

// Save writes the registry to the document. The current list takes
// ownership of the active vessel first.
func (t *Tracker) Save() error {
	if t.doc == nil {
		return nil
	}
	if t.opts.Vessel != uuid.Nil {
		t.reg.TrackAssociation(t.opts.Vessel)
	}
	if err := t.doc.Save(t.reg.Snapshot()); err != nil {
		return fmt.Errorf("saving mission lists: %w", err)
	}
	return nil
}

// Refresh re-reads a pulled source, applies pending source events and makes
// sure master holds every item the source reports.
func (t *Tracker) Refresh(ctx context.Context) error {
	if err := t.Pull(ctx); err != nil {
		return err
	}
	t.Sync()
	return nil
}

// Pull re-reads the item source without touching the registry. Sources are
// safe for concurrent use, so Pull may run off the goroutine that owns the
// Tracker; follow it with Sync on the owning goroutine.
func (t *Tracker) Pull(ctx context.Context) error {
	return t.pull(ctx)
}

// Sync applies pending source events, then reconciles master with the
// source: items the source no longer reports leave every list and active
// items missing from master are added. Events can be dropped by a source, so
// the reconciliation does not rely on them.
func (t *Tracker) Sync() {
	t.drainEvents(true)

	master := t.reg.Master()
	for _, id := range append(master.ActiveIDs(), master.HiddenIDs()...) {
		if _, ok := t.src.Get(id); !ok {
			t.log.Debug().Str("id", id.String()).Msg("item gone from source, removing it")
			t.reg.RemoveItemEverywhere(id)
		}
	}
	for _, id := range source.ActiveIDs(t.src) {
		master.AddItem(id, true, false)
	}
}

// Rebuild discards every list and regenerates the master list from the source.
func (t *Tracker) Rebuild(ctx context.Context) error {
	if err := t.pull(ctx); err != nil {
		return err
	}
	t.drainEvents(false)
	t.reg.Reset(source.ActiveIDs(t.src))
	t.log.Info().Msg("mission lists rebuilt from item source")
	return nil
}

func (t *Tracker) pull(ctx context.Context) error {
	r, ok := t.src.(source.Refresher)
	if !ok {
		return nil
	}
	if err := r.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing item source: %w", err)
	}
	return nil
}

// drainEvents consumes every pending source event. With apply unset, the
// events are discarded because the caller rebuilds membership anyway.
func (t *Tracker) drainEvents(apply bool) {
	n, ok := t.src.(source.Notifier)
	if !ok {
		return
	}
	for {
		select {
		case ev := <-n.Events():
			if apply {
				t.HandleEvent(ev)
			}
		default:
			return
		}
	}
}

// HandleEvent applies one source notification: new active items join master
// and the current list, removed items leave every list.
func (t *Tracker) HandleEvent(ev source.Event) {
	switch ev.Kind {
	case source.EventAdded:
		if ev.State == domain.StateActive {
			t.reg.AddItemEverywhere(ev.ID, true, true)
		}
	case source.EventRemoved:
		t.reg.RemoveItemEverywhere(ev.ID)
	case source.EventStateChanged:
		t.log.Debug().Str("id", ev.ID.String()).Str("state", ev.State.String()).Msg("item state changed")
	}
}

// list resolves a list name. "" is the current list. Names match exactly,
// then case-insensitively when that is unambiguous.
func (t *Tracker) list(name string) (*store.MissionList, error) {
	if name == "" {
		return t.reg.Current(), nil
	}
	if l := t.reg.List(name); l != nil {
		return l, nil
	}

	var match *store.MissionList
	for _, n := range t.reg.Names() {
		if strings.EqualFold(n, name) {
			if match != nil {
				match = nil
				break
			}
			match = t.reg.List(n)
		}
	}
	if match != nil {
		return match, nil
	}

	if s := t.Suggest(name); s != "" {
		return nil, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownList, name, s)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownList, name)
}

func rejected(ok bool, op string) error {
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrRejected)
	}
	return nil
}

// CurrentList returns the selected list.
func (t *Tracker) CurrentList() *store.MissionList { return t.reg.Current() }

// AllLists returns master first, then the other lists by active count.
func (t *Tracker) AllLists() []*store.MissionList { return t.reg.AllLists() }

// Names returns every list name in registry order.
func (t *Tracker) Names() []string { return t.reg.Names() }

// Item resolves an item through the source.
func (t *Tracker) Item(id domain.ItemID) (domain.Item, error) {
	return source.Lookup(t.src, id)
}

// OrderedView returns the displayed partition of a list, resolved and in
// display order.
func (t *Tracker) OrderedView(name string) ([]domain.Item, error) {
	l, err := t.list(name)
	if err != nil {
		return nil, err
	}
	return t.resolve(l.OrderedView(t.src, t.opts.Now())), nil
}

// OrderedPartition returns either partition of a list in display order.
func (t *Tracker) OrderedPartition(name string, active bool) ([]domain.Item, error) {
	l, err := t.list(name)
	if err != nil {
		return nil, err
	}
	return t.resolve(l.OrderedPartition(active, t.src, t.opts.Now())), nil
}

func (t *Tracker) resolve(ids []domain.ItemID) []domain.Item {
	items := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := t.src.Get(id); ok {
			items = append(items, item)
		}
	}
	return items
}

// View returns the list-local view of an item.
func (t *Tracker) View(name string, id domain.ItemID) (store.ItemView, bool) {
	l, err := t.list(name)
	if err != nil {
		return store.ItemView{}, false
	}
	return l.View(id)
}

// Now returns the tracker's clock reading.
func (t *Tracker) Now() time.Time { return t.opts.Now() }

// Select makes the named list current.
func (t *Tracker) Select(name string) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	t.reg.Select(l.Name())
	return nil
}

// CreateList adds an empty list.
func (t *Tracker) CreateList(name string) error {
	return rejected(t.reg.CreateList(name), fmt.Sprintf("create list %q", name))
}

// RemoveList deletes a non-master list.
func (t *Tracker) RemoveList(name string) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	return rejected(t.reg.RemoveList(l.Name()), fmt.Sprintf("remove list %q", l.Name()))
}

// RenameList renames a non-master list.
func (t *Tracker) RenameList(oldName, newName string) error {
	l, err := t.list(oldName)
	if err != nil {
		return err
	}
	return rejected(t.reg.RenameList(l.Name(), newName), fmt.Sprintf("rename list %q to %q", l.Name(), newName))
}

// NewListWithItem creates a list holding one item.
func (t *Tracker) NewListWithItem(name string, id domain.ItemID) error {
	return rejected(t.reg.NewListWithItem(name, id), fmt.Sprintf("create list %q", name))
}

// AddToList adds an active item to a list.
func (t *Tracker) AddToList(name string, id domain.ItemID) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	if l.Contains(id) {
		return fmt.Errorf("add to %q: %w", l.Name(), ErrRejected)
	}
	return rejected(t.reg.AddItem(l.Name(), id, true), fmt.Sprintf("add to %q", l.Name()))
}

// RemoveFromList removes an item from a list; removal from master removes it
// everywhere.
func (t *Tracker) RemoveFromList(name string, id domain.ItemID) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	return rejected(t.reg.RemoveItem(l.Name(), id), fmt.Sprintf("remove from %q", l.Name()))
}

// Pin pins an item in a list.
func (t *Tracker) Pin(name string, id domain.ItemID) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	return rejected(l.Pin(id), "pin")
}

// Unpin clears an item's pin.
func (t *Tracker) Unpin(name string, id domain.ItemID) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	return rejected(l.Unpin(id), "unpin")
}

// TogglePin pins an unpinned item and unpins a pinned one.
func (t *Tracker) TogglePin(name string, id domain.ItemID) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	if v, ok := l.View(id); ok && v.Pinned() {
		return rejected(l.Unpin(id), "unpin")
	}
	return rejected(l.Pin(id), "pin")
}

// SetHidden moves an item between a list's partitions.
func (t *Tracker) SetHidden(name string, id domain.ItemID, hidden bool) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	op := "unhide"
	if hidden {
		op = "hide"
	}
	return rejected(l.SetHidden(id, hidden), op)
}

// ToggleDetails flips an item's expanded details.
func (t *Tracker) ToggleDetails(name string, id domain.ItemID) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	v, ok := l.View(id)
	if !ok {
		return fmt.Errorf("toggle details: %w", ErrRejected)
	}
	l.SetDetailsVisible(id, !v.DetailsVisible)
	return nil
}

// SetSort sets a list's sort criterion and direction.
func (t *Tracker) SetSort(name string, criterion domain.SortCriterion, ascending bool) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	l.SetSort(criterion, ascending)
	return nil
}

// ToggleShowHidden switches which partition a list displays.
func (t *Tracker) ToggleShowHidden(name string) error {
	l, err := t.list(name)
	if err != nil {
		return err
	}
	l.SetShowHidden(l.ShowActive())
	return nil
}

// ListsContaining returns the names of the lists holding id.
func (t *Tracker) ListsContaining(id domain.ItemID) []string {
	lists := t.reg.ListsContaining(id)
	out := make([]string, len(lists))
	for i, l := range lists {
		out[i] = l.Name()
	}
	return out
}

// Window returns the window state of the configured scene.
func (t *Tracker) Window() domain.WindowState { return t.reg.Window(t.opts.Scene) }

// SetWindow stores the window state of the configured scene.
func (t *Tracker) SetWindow(w domain.WindowState) { t.reg.SetWindow(t.opts.Scene, w) }

// ResolveItem turns a reference into an item id. A reference is a full
// identifier or a unique prefix of one known to the source or any list.
func (t *Tracker) ResolveItem(ref string) (domain.ItemID, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if ref == "" {
		return uuid.Nil, fmt.Errorf("%w: empty reference", source.ErrNotFound)
	}

	candidates := make(map[domain.ItemID]bool)
	for _, id := range t.src.IDs() {
		candidates[id] = true
	}
	for _, l := range t.reg.AllLists() {
		for _, id := range append(l.ActiveIDs(), l.HiddenIDs()...) {
			candidates[id] = true
		}
	}

	var found []domain.ItemID
	for id := range candidates {
		if strings.HasPrefix(id.String(), ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %q", source.ErrNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%w: %q matches %d items", ErrAmbiguousItem, ref, len(found))
	}
}
