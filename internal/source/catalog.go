package source

import (
	"strings"

	"github.com/robby/cwp/internal/domain"
)

// Catalog maps contract type and parameter names to the category the sort
// engine uses. Registration replaces runtime type inspection.
type Catalog struct {
	entries map[string]domain.Category
}

// ParamReachAltitudeEnvelope is the parameter name that marks altitude
// envelope contracts.
const ParamReachAltitudeEnvelope = "ReachAltitudeEnvelope"

// NewCatalog returns a catalog with the built-in registrations.
func NewCatalog() *Catalog {
	c := &Catalog{entries: make(map[string]domain.Category)}
	c.Register(ParamReachAltitudeEnvelope, domain.CategoryAltitudeEnvelope)
	return c
}

// Register associates name with category. Names are matched case-insensitively.
func (c *Catalog) Register(name string, category domain.Category) {
	c.entries[strings.ToLower(strings.TrimSpace(name))] = category
}

// Lookup returns the category registered for name.
func (c *Catalog) Lookup(name string) (domain.Category, bool) {
	category, ok := c.entries[strings.ToLower(strings.TrimSpace(name))]
	return category, ok
}

// Classify returns the first registered non-general category among the
// item's type name and parameter names.
func (c *Catalog) Classify(typeName string, params []string) domain.Category {
	for _, name := range append([]string{typeName}, params...) {
		if category, ok := c.Lookup(name); ok && category != domain.CategoryGeneral {
			return category
		}
	}
	return domain.CategoryGeneral
}

// ParseCategory maps a roster category name to a Category.
func ParseCategory(name string) (domain.Category, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "general":
		return domain.CategoryGeneral, true
	case "altitude", "altitude_envelope":
		return domain.CategoryAltitudeEnvelope, true
	default:
		return domain.CategoryGeneral, false
	}
}
