package scoring

import (
	"time"

	"github.com/salesradar/salesradar/internal/model"
)

// maxRecommendations caps how many pack codes one client receives.
const maxRecommendations = 3

// ticketPackMap maps recurring ticket issue types to the automation
// pack that addresses them. Performance and training issues have no
// pack counterpart.
var ticketPackMap = map[model.IssueType]string{
	model.IssueGST:       "GST_HEALTH",
	model.IssueInventory: "INV_ALERT",
	model.IssueReport:    "F1_MIS",
}

// ClientScore holds the combined upsell and risk result for a client.
type ClientScore struct {
	ClientID         string             `json:"client_id"`
	UpsellScore      float64            `json:"upsell_score"`
	RecommendedPacks []string           `json:"recommended_packs"`
	RiskScore        float64            `json:"risk_score"`
	RiskFlag         string             `json:"risk_flag,omitempty"`
	Components       map[string]float64 `json:"components"`
}

// ScoreClient computes a client's upsell opportunity score, pack
// recommendations, and support risk.
//
// Upsell formula:
//
//	product gap  = max(10, 40 - owned core products * 10)  (max 40)
//	recency      = months since last project, tiered       (max 30)
//	size/sector  = (sector + size weights) / 2 * 30        (max 30)
func (e *Engine) ScoreClient(
	client model.Client,
	tickets []model.Ticket,
	installedPackCodes []string,
	packs []model.AutomationPack,
) ClientScore {
	gap := productGapScore(client.OwnedCoreProducts())
	recency := e.projectRecencyScore(client.LastProjectDate)
	sizeSector := (e.weights.Sector(client.Sector) + e.weights.Size(client.Size)) / 2 * 30

	upsell := clamp100(round1(gap + recency + sizeSector))

	risk, flag := e.RiskScore(tickets)

	return ClientScore{
		ClientID:         client.ID,
		UpsellScore:      upsell,
		RecommendedPacks: e.RecommendPacks(client, tickets, installedPackCodes, packs),
		RiskScore:        risk,
		RiskFlag:         flag,
		Components: map[string]float64{
			"product_gap": gap,
			"recency":     recency,
			"size_sector": round1(sizeSector),
		},
	}
}

// productGapScore rewards thin product footprints: fewer owned core
// products means more room to sell.
func productGapScore(ownedCount int) float64 {
	gap := 40 - float64(ownedCount)*10
	if gap < 10 {
		return 10
	}
	return gap
}

// projectRecencyScore grades time since the last project. Long-idle
// accounts are the biggest opportunities; a missing date scores
// neutral.
func (e *Engine) projectRecencyScore(lastProject *time.Time) float64 {
	if lastProject == nil {
		return 15
	}
	switch months := daysSince(e.now, *lastProject) / 30; {
	case months >= 24:
		return 30
	case months >= 12:
		return 25
	case months >= 6:
		return 15
	default:
		return 10
	}
}

// RecommendPacks selects up to three pack codes for a client as a
// single ordered candidate pipeline: ticket-pattern matches first (in
// the order each distinct issue type reaches two occurrences), then
// catalog packs in stored order. Duplicates, installed packs, inactive
// packs, sector mismatches, and unmet product prerequisites are
// filtered out.
func (e *Engine) RecommendPacks(
	client model.Client,
	tickets []model.Ticket,
	installedPackCodes []string,
	packs []model.AutomationPack,
) []string {
	activeByCode := make(map[string]model.AutomationPack, len(packs))
	for _, p := range packs {
		if p.IsActive {
			activeByCode[p.Code] = p
		}
	}

	var candidates []string

	// Recurring ticket patterns. Counting in ticket order keeps the
	// candidate order deterministic.
	counts := make(map[model.IssueType]int)
	for _, t := range tickets {
		counts[t.IssueType]++
		if counts[t.IssueType] != 2 {
			continue
		}
		if code, ok := ticketPackMap[t.IssueType]; ok {
			candidates = append(candidates, code)
		}
	}

	// Catalog packs the client qualifies for, in stored order.
	for _, p := range packs {
		if !p.IsActive {
			continue
		}
		if !p.Targets(client.Sector) {
			continue
		}
		if !p.RequirementsMet(client.ExistingProducts) {
			continue
		}
		candidates = append(candidates, p.Code)
	}

	installed := make(map[string]struct{}, len(installedPackCodes))
	for _, code := range installedPackCodes {
		installed[code] = struct{}{}
	}

	seen := make(map[string]struct{}, len(candidates))
	recommended := make([]string, 0, maxRecommendations)
	for _, code := range candidates {
		if len(recommended) == maxRecommendations {
			break
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		if _, ok := installed[code]; ok {
			continue
		}
		if _, ok := activeByCode[code]; !ok {
			continue
		}
		recommended = append(recommended, code)
	}
	return recommended
}
