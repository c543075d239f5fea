package app

import (
	"context"
	"time"

	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/store"
)

// Presentation is the surface a user interface drives. Tracker implements it.
type Presentation interface {
	CurrentList() *store.MissionList
	AllLists() []*store.MissionList
	OrderedView(list string) ([]domain.Item, error)
	View(list string, id domain.ItemID) (store.ItemView, bool)
	Item(id domain.ItemID) (domain.Item, error)
	ListsContaining(id domain.ItemID) []string
	Now() time.Time

	Select(list string) error
	CreateList(name string) error
	RemoveList(name string) error
	RenameList(oldName, newName string) error
	NewListWithItem(name string, id domain.ItemID) error
	AddToList(list string, id domain.ItemID) error
	RemoveFromList(list string, id domain.ItemID) error

	TogglePin(list string, id domain.ItemID) error
	SetHidden(list string, id domain.ItemID, hidden bool) error
	ToggleDetails(list string, id domain.ItemID) error
	SetSort(list string, criterion domain.SortCriterion, ascending bool) error
	ToggleShowHidden(list string) error

	Refresh(ctx context.Context) error
	Pull(ctx context.Context) error
	Sync()
	Rebuild(ctx context.Context) error
	Reload(ctx context.Context) error
	Save() error
}

var _ Presentation = (*Tracker)(nil)
