package scoring

import (
	"math"
	"sort"
	"strings"
)

// Risk levels and recommended actions for regional rollups.
const (
	RiskLevelLow    = "LOW"
	RiskLevelMedium = "MEDIUM"
	RiskLevelHigh   = "HIGH"

	GeoActionScout      = "SCOUT"
	GeoActionRetention  = "RETENTION"
	GeoActionNurture    = "NURTURE"
	GeoActionExpand     = "EXPAND"
	GeoActionAggressive = "AGGRESSIVE"
)

// EntityKind distinguishes scored leads from scored clients in a
// geographic rollup.
type EntityKind string

const (
	KindLead   EntityKind = "lead"
	KindClient EntityKind = "client"
)

// GeoEntity is one scored entity with its geographic attributes.
type GeoEntity struct {
	Kind   EntityKind `json:"kind"`
	Score  float64    `json:"score"`
	City   string     `json:"city,omitempty"`
	Region string     `json:"region,omitempty"`
	State  string     `json:"state,omitempty"`
}

// CityMetrics is a per-city sub-aggregate within a state.
type CityMetrics struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_quality"`
}

// StateMetrics is the rollup for one state.
type StateMetrics struct {
	Name               string        `json:"name"`
	Region             string        `json:"region,omitempty"`
	LeadCount          int           `json:"lead_count"`
	ClientCount        int           `json:"client_count"`
	AvgLeadScore       float64       `json:"avg_lead_score"`
	OpportunityDensity float64       `json:"opportunity_density"`
	RiskLevel          string        `json:"risk_level"`
	RecommendedAction  string        `json:"recommended_action"`
	TopCities          []CityMetrics `json:"top_cities"`
}

// GeoSummary is the full geographic rollup. Entities without a state
// are counted under Unmapped and contribute to no state's metrics.
type GeoSummary struct {
	States   map[string]StateMetrics `json:"states"`
	Unmapped int                     `json:"unmapped_count"`
}

type stateAccum struct {
	region       string
	leadCount    int
	clientCount  int
	scoreSum     float64
	leadScoreSum float64
	cities       map[string]*cityAccum
}

type cityAccum struct {
	count int
	sum   float64
}

// AggregateGeo rolls scored entities up into per-state opportunity
// classifications.
func AggregateGeo(entities []GeoEntity) GeoSummary {
	summary := GeoSummary{States: make(map[string]StateMetrics)}
	accum := make(map[string]*stateAccum)

	for _, en := range entities {
		state := strings.TrimSpace(en.State)
		if state == "" {
			summary.Unmapped++
			continue
		}
		sa, ok := accum[state]
		if !ok {
			sa = &stateAccum{cities: make(map[string]*cityAccum)}
			accum[state] = sa
		}
		if sa.region == "" {
			sa.region = strings.TrimSpace(en.Region)
		}
		sa.scoreSum += en.Score
		if en.Kind == KindLead {
			sa.leadCount++
			sa.leadScoreSum += en.Score
		} else {
			sa.clientCount++
		}

		if city := strings.TrimSpace(en.City); city != "" {
			ca, ok := sa.cities[city]
			if !ok {
				ca = &cityAccum{}
				sa.cities[city] = ca
			}
			ca.count++
			ca.sum += en.Score
		}
	}

	for state, sa := range accum {
		summary.States[state] = finalizeState(state, sa)
	}
	return summary
}

func finalizeState(name string, sa *stateAccum) StateMetrics {
	total := sa.leadCount + sa.clientCount

	var density float64
	if total > 0 {
		density = clamp100(round1(sa.scoreSum / math.Sqrt(float64(total)) / 3.0))
	}

	var avgLead float64
	if sa.leadCount > 0 {
		avgLead = round1(sa.leadScoreSum / float64(sa.leadCount))
	}

	level := densityRiskLevel(density)

	return StateMetrics{
		Name:               name,
		Region:             sa.region,
		LeadCount:          sa.leadCount,
		ClientCount:        sa.clientCount,
		AvgLeadScore:       avgLead,
		OpportunityDensity: density,
		RiskLevel:          level,
		RecommendedAction:  recommendedAction(level, density, avgLead, sa.leadCount, sa.clientCount),
		TopCities:          topCities(sa.cities),
	}
}

func densityRiskLevel(density float64) string {
	switch {
	case density < 30:
		return RiskLevelHigh
	case density < 60:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// recommendedAction maps a state's risk tier to a go-to-market move.
// Hot lead pockets (average lead score above 80 across more than two
// leads) force AGGRESSIVE regardless of tier.
func recommendedAction(level string, density, avgLeadScore float64, leadCount, clientCount int) string {
	if avgLeadScore > 80 && leadCount > 2 {
		return GeoActionAggressive
	}
	switch level {
	case RiskLevelHigh:
		if clientCount == 0 {
			return GeoActionScout
		}
		return GeoActionRetention
	case RiskLevelMedium:
		return GeoActionNurture
	default:
		if density < 80 {
			return GeoActionExpand
		}
		return GeoActionAggressive
	}
}

// topCities returns up to three cities by descending average score,
// ties broken by name for determinism.
func topCities(cities map[string]*cityAccum) []CityMetrics {
	out := make([]CityMetrics, 0, len(cities))
	for name, ca := range cities {
		out = append(out, CityMetrics{
			Name:     name,
			Count:    ca.count,
			AvgScore: round1(ca.sum / float64(ca.count)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgScore != out[j].AvgScore {
			return out[i].AvgScore > out[j].AvgScore
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
