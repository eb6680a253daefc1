package scoring

import (
	"math"

	"github.com/salesradar/salesradar/internal/model"
)

// Risk flags surfaced to consumers verbatim. An empty flag means no
// concern.
const (
	FlagTrainingNeeded  = "Training needed"
	FlagHighSupportLoad = "High support load"
	FlagMonitorClosely  = "Monitor closely"
)

// riskWindowDays bounds how far back ticket history counts toward risk.
const riskWindowDays = 90

// severityWeights grade ticket urgency. Unknown severities count as low.
var severityWeights = map[model.Severity]float64{
	model.SeverityCritical: 4,
	model.SeverityHigh:     3,
	model.SeverityMedium:   2,
	model.SeverityLow:      1,
}

// RiskScore computes a client's 0-100 support risk from its recent
// ticket history and the matching risk flag (empty when unremarkable).
//
//	volume     = min(recent tickets * 8, 40)                  (max 40)
//	severity   = weighted severity / max possible * 30        (max 30)
//	resolution = mean days-to-resolve, tiered                 (max 30)
func (e *Engine) RiskScore(tickets []model.Ticket) (float64, string) {
	cutoff := e.now.AddDate(0, 0, -riskWindowDays)
	var recent []model.Ticket
	for _, t := range tickets {
		if !t.CreatedAt.Before(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) == 0 {
		return 0, ""
	}

	volume := math.Min(float64(len(recent))*8, 40)

	var severitySum float64
	for _, t := range recent {
		w, ok := severityWeights[t.Severity]
		if !ok {
			w = 1
		}
		severitySum += w
	}
	severity := severitySum / (float64(len(recent)) * 4) * 30

	resolution := resolutionScore(recent)

	score := clamp100(round1(volume + severity + resolution))

	return score, riskFlag(score, recent)
}

// resolutionScore grades the mean days-to-resolve over resolved
// tickets. No resolved tickets scores 0. Tickets resolved before they
// were created (bad data) count as zero-day resolutions rather than
// skewing the mean negative.
func resolutionScore(recent []model.Ticket) float64 {
	var sum float64
	var resolved int
	for _, t := range recent {
		if t.ResolvedAt == nil {
			continue
		}
		days := t.ResolvedAt.Sub(t.CreatedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
		sum += days
		resolved++
	}
	if resolved == 0 {
		return 0
	}
	switch avg := sum / float64(resolved); {
	case avg >= 14:
		return 30
	case avg >= 7:
		return 20
	case avg >= 3:
		return 10
	default:
		return 5
	}
}

// riskFlag picks the flag for a score. High-risk clients whose tickets
// are at least half training issues need enablement, not firefighting.
func riskFlag(score float64, recent []model.Ticket) string {
	switch {
	case score >= 60:
		training := 0
		for _, t := range recent {
			if t.IssueType == model.IssueTraining {
				training++
			}
		}
		if float64(training) >= float64(len(recent))*0.5 {
			return FlagTrainingNeeded
		}
		return FlagHighSupportLoad
	case score >= 40:
		return FlagMonitorClosely
	default:
		return ""
	}
}
