package model

import "time"

// AutomationPack is an add-on module that can be sold to a client.
type AutomationPack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`

	// TargetSectors limits which sectors the pack suits. Empty means
	// the pack applies to all sectors.
	TargetSectors []Sector `json:"target_sectors,omitempty"`

	// RequiredExistingProducts must all be owned by a client before the
	// pack can be recommended. Empty means no prerequisite.
	RequiredExistingProducts []string `json:"required_existing_products,omitempty"`

	PriceBand string    `json:"price_band,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Targets reports whether the pack suits the given sector. An empty
// target list matches every sector.
func (p AutomationPack) Targets(sector Sector) bool {
	if len(p.TargetSectors) == 0 {
		return true
	}
	for _, s := range p.TargetSectors {
		if s == sector {
			return true
		}
	}
	return false
}

// SectorNames returns the target sectors as plain strings for display
// and serialization.
func (p AutomationPack) SectorNames() []string {
	if len(p.TargetSectors) == 0 {
		return nil
	}
	names := make([]string, len(p.TargetSectors))
	for i, s := range p.TargetSectors {
		names[i] = string(s)
	}
	return names
}

// RequirementsMet reports whether every required product is present in
// the given product set.
func (p AutomationPack) RequirementsMet(products []string) bool {
	if len(p.RequiredExistingProducts) == 0 {
		return true
	}
	owned := make(map[string]struct{}, len(products))
	for _, prod := range NormalizeSet(products) {
		owned[prod] = struct{}{}
	}
	for _, req := range NormalizeSet(p.RequiredExistingProducts) {
		if _, ok := owned[req]; !ok {
			return false
		}
	}
	return true
}

// ClientAutomation records an automation pack installed at a client.
// Installed packs are excluded from recommendations.
type ClientAutomation struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	PackID        string     `json:"pack_id"`
	InstalledDate *time.Time `json:"installed_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// WeightEntry is one row of the runtime weight configuration. Keys use
// the flat "category_variant" form (e.g. "sector_manufacturing").
type WeightEntry struct {
	Key      string  `json:"key"`
	Value    float64 `json:"value"`
	Category string  `json:"category,omitempty"`
	Label    string  `json:"label,omitempty"`
}

// ScoreRecord is one historical score observation for trend analysis.
type ScoreRecord struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id"`
	EntityType string    `json:"entity_type"` // "lead" or "client"
	Score      float64   `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}
