// Package domain defines the normalized types shared by the mission list engine
// and its collaborators. Items are owned by an item source; the engine only
// indexes and annotates their identifiers.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemID identifies an item across every list.
type ItemID = uuid.UUID

// State is the lifecycle state of an item.
type State int

const (
	StateActive State = iota
	StateCompleted
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState maps a state name to a State. Unknown names return an error.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return StateActive, nil
	case "completed", "complete":
		return StateCompleted, nil
	case "failed", "fail":
		return StateFailed, nil
	default:
		return StateActive, fmt.Errorf("unknown item state %q", s)
	}
}

// Category is a tagged sub-category supplied by the item source. It replaces
// runtime type inspection for the few sort rules that depend on item subtype.
type Category int

const (
	CategoryGeneral Category = iota
	// CategoryAltitudeEnvelope marks items that require reaching an altitude
	// band; their Threshold carries the minimum altitude.
	CategoryAltitudeEnvelope
)

// String returns the category name used in roster files.
func (c Category) String() string {
	switch c {
	case CategoryAltitudeEnvelope:
		return "altitude"
	default:
		return "general"
	}
}

// Item is an externally owned contract record.
type Item struct {
	ID         ItemID
	Title      string
	Type       string // Type name, e.g. "PartTest"
	Planet     string // Target body
	Difficulty int    // Prestige rank
	Reward     float64
	Accepted   time.Time
	Deadline   time.Time // Zero when the item never expires
	State      State
	Note       string
	Category   Category
	Threshold  float64 // Minimum altitude for CategoryAltitudeEnvelope items
}

// NoExpiry is the remaining duration reported for items without a deadline.
const NoExpiry = time.Duration(math.MaxInt64)

// Remaining returns the time left before the item expires, measured at now.
// Items that are no longer active have no time remaining.
func (i Item) Remaining(now time.Time) time.Duration {
	if i.State != StateActive {
		return 0
	}
	if i.Deadline.IsZero() {
		return NoExpiry
	}
	return i.Deadline.Sub(now)
}

// SortCriterion selects the primary key used to order unpinned list members.
// The ordinal values are persisted and must not be reordered.
type SortCriterion int

const (
	SortPlanet SortCriterion = iota
	SortExpiration
	SortAcceptance
	SortReward
	SortDifficulty
	SortType
)

// DefaultSort is the criterion given to new lists and substituted for
// missing or invalid persisted values.
const DefaultSort = SortDifficulty

var criterionNames = []string{"planet", "expiration", "acceptance", "reward", "difficulty", "type"}

// String returns the criterion name.
func (c SortCriterion) String() string {
	if !c.Valid() {
		return fmt.Sprintf("criterion(%d)", int(c))
	}
	return criterionNames[c]
}

// Valid reports whether c is one of the defined criteria.
func (c SortCriterion) Valid() bool {
	return c >= SortPlanet && c <= SortType
}

// Next cycles to the following criterion, wrapping around.
func (c SortCriterion) Next() SortCriterion {
	if !c.Valid() {
		return DefaultSort
	}
	return (c + 1) % SortCriterion(len(criterionNames))
}

// ParseCriterion maps a criterion name (case-insensitive) to its value.
func ParseCriterion(s string) (SortCriterion, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range criterionNames {
		if n == name {
			return SortCriterion(i), nil
		}
	}
	return DefaultSort, fmt.Errorf("unknown sort criterion %q (want one of %s)", s, strings.Join(criterionNames, ", "))
}

// Scene identifies one of the host's UI contexts; each keeps its own window state.
type Scene int

const (
	SceneFlight Scene = iota
	SceneEditor
	SceneSpaceCenter
	SceneTrackingStation
)

// SceneCount is the fixed number of scene slots persisted.
const SceneCount = 4

// ParseScene maps a scene name to its slot. Unknown names map to SceneFlight,
// mirroring the host's fallback.
func ParseScene(s string) Scene {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "editor":
		return SceneEditor
	case "spacecenter", "space_center":
		return SceneSpaceCenter
	case "trackingstation", "tracking_station":
		return SceneTrackingStation
	default:
		return SceneFlight
	}
}

// Rect is a window rectangle in host pixels.
type Rect struct {
	X, Y, W, H int
}

// DefaultRect is the window rectangle used when nothing is persisted.
var DefaultRect = Rect{X: 50, Y: -80, W: 250, H: 300}

// WindowState is the persisted window visibility and placement for one scene.
type WindowState struct {
	Visible bool
	Rect    Rect
}
