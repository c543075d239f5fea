package app

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the list name closest to name, or "" when nothing is close
// enough to be a plausible typo.
func (t *Tracker) Suggest(name string) string {
	return closest(name, t.reg.Names())
}

func closest(name string, candidates []string) string {
	target := strings.ToLower(name)
	limit := max(2, len(target)/3)

	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(target, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
