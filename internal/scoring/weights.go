// Package scoring implements the rule-based lead/client intelligence
// engine: lead priority, client upsell, support risk, and geographic
// rollups. Every function here is pure: no I/O, no shared mutable
// state, and no failure modes. Unrecognized categorical values degrade
// to the lowest-confidence default weight instead of erroring.
package scoring

import (
	"strings"

	"github.com/salesradar/salesradar/internal/model"
)

// Category identifies one weight lookup dimension.
type Category string

const (
	CategorySector Category = "sector"
	CategorySize   Category = "size"
	CategorySource Category = "source"
)

// unknownWeight is the floor every lookup degrades to when neither the
// overrides nor the defaults know the variant.
const unknownWeight = 0.3

// Table resolves (category, variant) weight lookups. A Table is
// read-only after construction, so one snapshot can serve many
// concurrent scoring calls; callers refresh it once per batch, not per
// entity.
type Table struct {
	values map[Category]map[string]float64
}

// Defaults returns the built-in weight table, calibrated for SME B2B
// software sales.
func Defaults() Table {
	return Table{values: map[Category]map[string]float64{
		CategorySector: {
			string(model.SectorManufacturing): 1.0,
			string(model.SectorTrading):       0.7,
			string(model.SectorServices):      0.5,
			"unknown":                         0.3,
		},
		CategorySize: {
			string(model.SizeLarge):  1.0,
			string(model.SizeMedium): 0.7,
			string(model.SizeSmall):  0.4,
			"unknown":                0.3,
		},
		CategorySource: {
			string(model.SourceReferral):  1.0,
			string(model.SourcePartner):   0.8,
			string(model.SourceIndiamart): 0.6,
			string(model.SourceJustdial):  0.5,
			string(model.SourceWebsite):   0.4,
			string(model.SourceCold):      0.3,
			"unknown":                     0.3,
		},
	}}
}

// Merge returns a new Table with the overrides applied on top of t.
// Variants absent from the overrides keep t's value. Neither input is
// mutated.
func (t Table) Merge(overrides Table) Table {
	merged := make(map[Category]map[string]float64, len(t.values))
	for cat, variants := range t.values {
		m := make(map[string]float64, len(variants))
		for k, v := range variants {
			m[k] = v
		}
		merged[cat] = m
	}
	for cat, variants := range overrides.values {
		m, ok := merged[cat]
		if !ok {
			m = make(map[string]float64, len(variants))
			merged[cat] = m
		}
		for k, v := range variants {
			m[k] = v
		}
	}
	return Table{values: merged}
}

// FromFlat builds a Table from flat "category_variant" keys, the form
// the scoring_configs table stores (e.g. "sector_manufacturing").
// Keys that do not split into a known category are ignored.
func FromFlat(entries map[string]float64) Table {
	values := make(map[Category]map[string]float64)
	for key, val := range entries {
		cat, variant, ok := strings.Cut(key, "_")
		if !ok || variant == "" {
			continue
		}
		c := Category(strings.ToLower(cat))
		switch c {
		case CategorySector, CategorySize, CategorySource:
		default:
			continue
		}
		if values[c] == nil {
			values[c] = make(map[string]float64)
		}
		values[c][strings.ToLower(variant)] = val
	}
	return Table{values: values}
}

// FromEntries builds a Table from stored weight rows.
func FromEntries(entries []model.WeightEntry) Table {
	flat := make(map[string]float64, len(entries))
	for _, e := range entries {
		flat[e.Key] = e.Value
	}
	return FromFlat(flat)
}

// Lookup resolves a single weight. Absent variants fall back to the
// category's "unknown" entry, then to the global floor. Lookup never
// fails.
func (t Table) Lookup(cat Category, variant string) float64 {
	variants, ok := t.values[cat]
	if !ok {
		return unknownWeight
	}
	if v, ok := variants[strings.ToLower(variant)]; ok {
		return v
	}
	if v, ok := variants["unknown"]; ok {
		return v
	}
	return unknownWeight
}

// Sector resolves the weight for a business sector.
func (t Table) Sector(s model.Sector) float64 {
	return t.Lookup(CategorySector, string(s))
}

// Size resolves the weight for a company size band.
func (t Table) Size(s model.CompanySize) float64 {
	return t.Lookup(CategorySize, string(s))
}

// Source resolves the weight for a lead acquisition source.
func (t Table) Source(s model.LeadSource) float64 {
	return t.Lookup(CategorySource, string(s))
}
