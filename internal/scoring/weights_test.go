package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salesradar/salesradar/internal/model"
)

func TestDefaultsLookup(t *testing.T) {
	w := Defaults()

	tests := []struct {
		name    string
		cat     Category
		variant string
		want    float64
	}{
		{"manufacturing", CategorySector, "manufacturing", 1.0},
		{"trading", CategorySector, "trading", 0.7},
		{"services", CategorySector, "services", 0.5},
		{"large", CategorySize, "large", 1.0},
		{"medium", CategorySize, "medium", 0.7},
		{"small", CategorySize, "small", 0.4},
		{"referral", CategorySource, "referral", 1.0},
		{"partner", CategorySource, "partner", 0.8},
		{"indiamart", CategorySource, "indiamart", 0.6},
		{"justdial", CategorySource, "justdial", 0.5},
		{"website", CategorySource, "website", 0.4},
		{"cold", CategorySource, "cold", 0.3},
		{"unknown sector", CategorySector, "agriculture", 0.3},
		{"unknown size", CategorySize, "mega", 0.3},
		{"unknown source", CategorySource, "billboard", 0.3},
		{"case insensitive", CategorySector, "Manufacturing", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, w.Lookup(tt.cat, tt.variant), 0.001)
		})
	}
}

func TestLookupUnknownCategory(t *testing.T) {
	w := Defaults()
	assert.InDelta(t, 0.3, w.Lookup(Category("region"), "north"), 0.001)
}

func TestMergePrecedence(t *testing.T) {
	base := Defaults()
	merged := base.Merge(FromFlat(map[string]float64{
		"sector_manufacturing": 0.9,
		"source_cold":          0.1,
	}))

	// Overrides win.
	assert.InDelta(t, 0.9, merged.Sector(model.SectorManufacturing), 0.001)
	assert.InDelta(t, 0.1, merged.Source(model.SourceCold), 0.001)

	// Defaults fill gaps.
	assert.InDelta(t, 0.7, merged.Sector(model.SectorTrading), 0.001)
	assert.InDelta(t, 1.0, merged.Size(model.SizeLarge), 0.001)

	// The base table is not mutated.
	assert.InDelta(t, 1.0, base.Sector(model.SectorManufacturing), 0.001)
}

func TestFromFlat(t *testing.T) {
	w := FromFlat(map[string]float64{
		"sector_manufacturing": 0.8,
		"size_large":           0.6,
		"source_referral":      0.5,
		"recency_7d":           1.0, // unknown category, ignored
		"malformed":            0.2, // no separator, ignored
	})

	assert.InDelta(t, 0.8, w.Lookup(CategorySector, "manufacturing"), 0.001)
	assert.InDelta(t, 0.6, w.Lookup(CategorySize, "large"), 0.001)
	assert.InDelta(t, 0.5, w.Lookup(CategorySource, "referral"), 0.001)

	// Unmerged tables degrade to the floor for everything else.
	assert.InDelta(t, 0.3, w.Lookup(CategorySector, "trading"), 0.001)
}

func TestFromEntries(t *testing.T) {
	w := Defaults().Merge(FromEntries([]model.WeightEntry{
		{Key: "sector_services", Value: 0.65, Category: "sector"},
	}))
	assert.InDelta(t, 0.65, w.Sector(model.SectorServices), 0.001)
}
