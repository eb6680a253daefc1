// Package model defines the entities consumed by the scoring engine.
//
// Categorical fields are closed enumerations with an explicit unknown
// fallback variant. Unrecognized values never fail to parse; they
// degrade to the unknown variant and pick up the lowest-confidence
// weight during scoring.
package model

import (
	"sort"
	"strings"
	"time"
)

// Sector classifies a company's line of business.
type Sector string

const (
	SectorManufacturing Sector = "manufacturing"
	SectorTrading       Sector = "trading"
	SectorServices      Sector = "services"
	SectorUnknown       Sector = "unknown"
)

// ParseSector maps free text onto a Sector, falling back to SectorUnknown.
func ParseSector(s string) Sector {
	switch v := Sector(normalize(s)); v {
	case SectorManufacturing, SectorTrading, SectorServices:
		return v
	default:
		return SectorUnknown
	}
}

// CompanySize bands a company by employee count.
type CompanySize string

const (
	SizeSmall   CompanySize = "small"  // < 20 employees
	SizeMedium  CompanySize = "medium" // 20-100 employees
	SizeLarge   CompanySize = "large"  // > 100 employees
	SizeUnknown CompanySize = "unknown"
)

// ParseSize maps free text onto a CompanySize, falling back to SizeUnknown.
func ParseSize(s string) CompanySize {
	switch v := CompanySize(normalize(s)); v {
	case SizeSmall, SizeMedium, SizeLarge:
		return v
	default:
		return SizeUnknown
	}
}

// LeadSource records how a lead was acquired.
type LeadSource string

const (
	SourceReferral  LeadSource = "referral"
	SourcePartner   LeadSource = "partner"
	SourceIndiamart LeadSource = "indiamart"
	SourceJustdial  LeadSource = "justdial"
	SourceWebsite   LeadSource = "website"
	SourceCold      LeadSource = "cold"
	SourceUnknown   LeadSource = "unknown"
)

// ParseSource maps free text onto a LeadSource, falling back to SourceUnknown.
func ParseSource(s string) LeadSource {
	switch v := LeadSource(normalize(s)); v {
	case SourceReferral, SourcePartner, SourceIndiamart, SourceJustdial, SourceWebsite, SourceCold:
		return v
	default:
		return SourceUnknown
	}
}

// LeadStatus tracks a lead through the sales pipeline.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusProposal    LeadStatus = "proposal"
	LeadStatusNegotiation LeadStatus = "negotiation"
	LeadStatusWon         LeadStatus = "won"
	LeadStatusLost        LeadStatus = "lost"
	LeadStatusConverted   LeadStatus = "converted"
	LeadStatusUnknown     LeadStatus = "unknown"
)

// ParseLeadStatus maps free text onto a LeadStatus, falling back to
// LeadStatusUnknown.
func ParseLeadStatus(s string) LeadStatus {
	switch v := LeadStatus(normalize(s)); v {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposal, LeadStatusNegotiation,
		LeadStatusWon, LeadStatusLost, LeadStatusConverted:
		return v
	default:
		return LeadStatusUnknown
	}
}

// Closed reports whether the lead has left the active pipeline.
func (s LeadStatus) Closed() bool {
	return s == LeadStatusWon || s == LeadStatusLost
}

// Lead is a prospective customer not yet converted to a paying client.
type Lead struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`

	Sector Sector      `json:"sector"`
	Size   CompanySize `json:"size"`
	Source LeadSource  `json:"source"`

	City   string `json:"city,omitempty"`
	Region string `json:"region,omitempty"`
	State  string `json:"state,omitempty"`

	InterestedModules []string `json:"interested_modules,omitempty"`

	LastContactDate *time.Time `json:"last_contact_date,omitempty"`
	Status          LeadStatus `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Modules returns the lead's interested modules as a normalized set:
// lowercased, trimmed, duplicates collapsed, sorted.
func (l Lead) Modules() []string {
	return NormalizeSet(l.InterestedModules)
}

// NormalizeSet lowercases, trims, deduplicates, and sorts a string set.
// Empty entries are dropped.
func NormalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
