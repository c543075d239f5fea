package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/robby/cwp/internal/domain"
)

// Roster is the on-disk TOML layout read by FileSource.
type Roster struct {
	Items []RosterItem `toml:"item"`
}

// RosterItem is one contract in a roster file.
type RosterItem struct {
	ID         string     `toml:"id"`
	Title      string     `toml:"title"`
	Type       string     `toml:"type"`
	Planet     string     `toml:"planet"`
	Difficulty int        `toml:"difficulty"`
	Reward     float64    `toml:"reward"`
	Accepted   time.Time  `toml:"accepted"`
	Deadline   *time.Time `toml:"deadline,omitempty"`
	State      string     `toml:"state,omitempty"`
	Note       string     `toml:"note,omitempty"`
	Category   string     `toml:"category,omitempty"`
	Threshold  float64    `toml:"threshold,omitempty"`
	Parameters []string   `toml:"parameters,omitempty"`
}

// FileSource serves items read from a TOML roster file. Refresh re-reads the
// file and emits change events for the difference.
type FileSource struct {
	*Memory

	path    string
	catalog *Catalog
	log     zerolog.Logger
}

var _ Refresher = (*FileSource)(nil)

// NewFileSource creates a source for the roster at path. Call Refresh to load it.
func NewFileSource(path string, catalog *Catalog, log zerolog.Logger) *FileSource {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &FileSource{
		Memory:  NewMemory(log),
		path:    path,
		catalog: catalog,
		log:     log,
	}
}

// Path returns the roster file path.
func (f *FileSource) Path() string { return f.path }

// Refresh reloads the roster file. A missing file yields an empty source.
func (f *FileSource) Refresh(_ context.Context) error {
	roster, err := LoadRoster(f.path)
	if err != nil {
		return err
	}

	items := make([]domain.Item, 0, len(roster.Items))
	for i, ri := range roster.Items {
		item, err := ri.toItem(f.catalog)
		if err != nil {
			f.log.Warn().Err(err).Int("index", i).Str("path", f.path).Msg("skipping invalid roster item")
			continue
		}
		items = append(items, item)
	}

	f.Replace(items)
	f.log.Debug().Int("items", len(items)).Str("path", f.path).Msg("loaded roster")
	return nil
}

// LoadRoster parses the roster file at path. A missing file is an empty roster.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Roster{}, nil
		}
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var r Roster
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	return &r, nil
}

// SaveRoster writes r to path.
func SaveRoster(path string, r *Roster) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling roster: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing roster: %w", err)
	}
	return nil
}

func (ri RosterItem) toItem(catalog *Catalog) (domain.Item, error) {
	id, err := uuid.Parse(ri.ID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("invalid id %q: %w", ri.ID, err)
	}

	state, err := domain.ParseState(ri.State)
	if err != nil {
		return domain.Item{}, err
	}

	category := catalog.Classify(ri.Type, ri.Parameters)
	if ri.Category != "" {
		c, ok := ParseCategory(ri.Category)
		if !ok {
			return domain.Item{}, fmt.Errorf("unknown category %q", ri.Category)
		}
		category = c
	}

	var deadline time.Time
	if ri.Deadline != nil {
		deadline = *ri.Deadline
	}

	return domain.Item{
		ID:         id,
		Title:      ri.Title,
		Type:       ri.Type,
		Planet:     ri.Planet,
		Difficulty: ri.Difficulty,
		Reward:     ri.Reward,
		Accepted:   ri.Accepted,
		Deadline:   deadline,
		State:      state,
		Note:       ri.Note,
		Category:   category,
		Threshold:  ri.Threshold,
	}, nil
}

// RosterItemFrom converts an item back into its roster form.
func RosterItemFrom(item domain.Item) RosterItem {
	ri := RosterItem{
		ID:         item.ID.String(),
		Title:      item.Title,
		Type:       item.Type,
		Planet:     item.Planet,
		Difficulty: item.Difficulty,
		Reward:     item.Reward,
		Accepted:   item.Accepted,
		State:      item.State.String(),
		Note:       item.Note,
		Threshold:  item.Threshold,
	}
	if !item.Deadline.IsZero() {
		deadline := item.Deadline
		ri.Deadline = &deadline
	}
	if item.Category != domain.CategoryGeneral {
		ri.Category = item.Category.String()
	}
	return ri
}
