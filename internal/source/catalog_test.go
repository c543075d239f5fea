package source

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robby/cwp/internal/domain"
)

func TestCatalog_Defaults(t *testing.T) {
	c := NewCatalog()

	category, ok := c.Lookup("reachaltitudeenvelope")
	assert.True(t, ok)
	assert.Equal(t, domain.CategoryAltitudeEnvelope, category)

	_, ok = c.Lookup("PartTest")
	assert.False(t, ok)
}

func TestCatalog_Classify(t *testing.T) {
	c := NewCatalog()
	c.Register("SurveyContract", domain.CategoryGeneral)

	tests := []struct {
		name     string
		typeName string
		params   []string
		want     domain.Category
	}{
		{"no params", "PartTest", nil, domain.CategoryGeneral},
		{"altitude param", "PartTest", []string{"VesselSystems", "ReachAltitudeEnvelope"}, domain.CategoryAltitudeEnvelope},
		{"registered general type", "SurveyContract", []string{"ReachAltitudeEnvelope"}, domain.CategoryAltitudeEnvelope},
		{"type registered directly", "ReachAltitudeEnvelope", nil, domain.CategoryAltitudeEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.typeName, tt.params))
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Altitude")
	assert.True(t, ok)
	assert.Equal(t, domain.CategoryAltitudeEnvelope, c)

	c, ok = ParseCategory("general")
	assert.True(t, ok)
	assert.Equal(t, domain.CategoryGeneral, c)

	_, ok = ParseCategory("orbital")
	assert.False(t, ok)
}
