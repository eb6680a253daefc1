package scoring

import (
	"math"
	"time"

	"github.com/salesradar/salesradar/internal/model"
)

// Suggested next actions for leads. Consumers display these verbatim.
const (
	ActionConvertToClient = "Closed - Convert to client"
	ActionLostReview      = "Lost - Review in 6 months"
	ActionCallToday       = "High priority - Call today"
	ActionFollowUp48h     = "Follow up within 48 hours"
	ActionSendBrochure    = "Send product brochure package"
	ActionDiscoveryCall   = "Schedule discovery call"
	ActionNurtureEmail    = "Add to nurture email sequence"
	ActionMonthlyCheckIn  = "Low priority - monthly check-in"
)

// LeadScore holds the scoring result for a single lead.
type LeadScore struct {
	LeadID     string             `json:"lead_id"`
	Score      float64            `json:"lead_score"`
	NextAction string             `json:"suggested_next_action"`
	Components map[string]float64 `json:"components"`
}

// ScoreLead computes a lead's 0-100 priority score and suggested next
// action.
//
// Formula:
//
//	base          = (sector + size + source weights) / 3 * 70   (max 70)
//	module bonus  = min(interested modules * 5, 15)             (max 15)
//	recency bonus = recency weight * 15                         (max 15)
func (e *Engine) ScoreLead(lead model.Lead) LeadScore {
	base := (e.weights.Sector(lead.Sector) +
		e.weights.Size(lead.Size) +
		e.weights.Source(lead.Source)) / 3 * 70

	numModules := len(lead.Modules())
	moduleBonus := math.Min(float64(numModules)*5, 15)

	recency := e.contactRecencyWeight(lead.LastContactDate)
	recencyBonus := recency * 15

	score := clamp100(round1(base + moduleBonus + recencyBonus))

	return LeadScore{
		LeadID:     lead.ID,
		Score:      score,
		NextAction: nextAction(lead.Status, score, recency, numModules),
		Components: map[string]float64{
			"base":          round1(base),
			"module_bonus":  moduleBonus,
			"recency_bonus": round1(recencyBonus),
		},
	}
}

// contactRecencyWeight grades how recently the lead was contacted.
// A missing date scores like stale contact.
func (e *Engine) contactRecencyWeight(lastContact *time.Time) float64 {
	if lastContact == nil {
		return 0.2
	}
	switch days := daysSince(e.now, *lastContact); {
	case days <= 7:
		return 1.0
	case days <= 30:
		return 0.7
	case days <= 90:
		return 0.4
	default:
		return 0.2
	}
}

// nextAction picks the suggested follow-up. Closed statuses win over
// everything; otherwise the score tier decides, with recency and module
// interest breaking ties within a tier.
func nextAction(status model.LeadStatus, score, recency float64, numModules int) string {
	switch {
	case status == model.LeadStatusWon:
		return ActionConvertToClient
	case status == model.LeadStatusLost:
		return ActionLostReview
	case score >= 70:
		if recency < 0.7 {
			return ActionCallToday
		}
		return ActionFollowUp48h
	case score >= 50:
		if numModules >= 2 {
			return ActionSendBrochure
		}
		return ActionDiscoveryCall
	case score >= 30:
		return ActionNurtureEmail
	default:
		return ActionMonthlyCheckIn
	}
}
