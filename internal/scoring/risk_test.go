package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salesradar/salesradar/internal/model"
)

func recentTicket(daysOld int, issue model.IssueType, sev model.Severity, resolveAfterDays int) model.Ticket {
	created := testNow.AddDate(0, 0, -daysOld)
	t := model.Ticket{IssueType: issue, Severity: sev, CreatedAt: created}
	if resolveAfterDays >= 0 {
		resolved := created.AddDate(0, 0, resolveAfterDays)
		t.ResolvedAt = &resolved
	}
	return t
}

func TestRiskScoreNoRecentTickets(t *testing.T) {
	e := testEngine()

	score, flag := e.RiskScore(nil)
	assert.Zero(t, score)
	assert.Empty(t, flag)

	// Old tickets fall outside the 90-day window.
	score, flag = e.RiskScore([]model.Ticket{
		recentTicket(120, model.IssueGST, model.SeverityCritical, -1),
		recentTicket(91, model.IssueGST, model.SeverityCritical, -1),
	})
	assert.Zero(t, score)
	assert.Empty(t, flag)
}

func TestRiskScoreComponents(t *testing.T) {
	e := testEngine()

	// One low-severity unresolved ticket: volume 8, severity
	// 1/4*30 = 7.5, resolution 0 -> 15.5, no flag.
	score, flag := e.RiskScore([]model.Ticket{
		recentTicket(10, model.IssuePerformance, model.SeverityLow, -1),
	})
	assert.InDelta(t, 15.5, score, 0.01)
	assert.Empty(t, flag)

	// Six critical tickets resolved slowly: volume capped at 40,
	// severity 30, resolution 30 -> 100.
	var tickets []model.Ticket
	for i := 0; i < 6; i++ {
		tickets = append(tickets, recentTicket(20+i, model.IssueGST, model.SeverityCritical, 15))
	}
	score, flag = e.RiskScore(tickets)
	assert.InDelta(t, 100.0, score, 0.01)
	assert.Equal(t, FlagHighSupportLoad, flag)
}

func TestRiskVolumeCap(t *testing.T) {
	e := testEngine()

	var tickets []model.Ticket
	for i := 0; i < 12; i++ {
		tickets = append(tickets, recentTicket(i+1, model.IssuePerformance, model.SeverityLow, -1))
	}
	score, _ := e.RiskScore(tickets)
	// volume 40 + severity 7.5 + resolution 0
	assert.InDelta(t, 47.5, score, 0.01)
}

func TestResolutionScoreTiers(t *testing.T) {
	tests := []struct {
		name string
		days int
		want float64
	}{
		{"two weeks", 14, 30},
		{"a week", 7, 20},
		{"a few days", 3, 10},
		{"same day", 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolutionScore([]model.Ticket{
				recentTicket(30, model.IssueGST, model.SeverityLow, tt.days),
			})
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}

	t.Run("no resolved tickets", func(t *testing.T) {
		got := resolutionScore([]model.Ticket{
			recentTicket(30, model.IssueGST, model.SeverityLow, -1),
		})
		assert.Zero(t, got)
	})
}

func TestResolutionScoreToleratesNegativeDuration(t *testing.T) {
	// resolved_at before created_at should be rejected upstream, but
	// the scorer treats it as a zero-day resolution instead of
	// crashing or skewing the mean.
	created := testNow.AddDate(0, 0, -10)
	resolved := created.AddDate(0, 0, -5)
	got := resolutionScore([]model.Ticket{{
		IssueType: model.IssueGST, Severity: model.SeverityLow,
		CreatedAt: created, ResolvedAt: &resolved,
	}})
	assert.InDelta(t, 5.0, got, 0.001)
}

func TestRiskFlagTrainingBoundary(t *testing.T) {
	e := testEngine()

	// Six critical tickets, slow resolution, exactly half training:
	// score 100, training ratio exactly 0.5 -> Training needed.
	tickets := []model.Ticket{
		recentTicket(10, model.IssueTraining, model.SeverityCritical, 20),
		recentTicket(11, model.IssueTraining, model.SeverityCritical, 20),
		recentTicket(12, model.IssueTraining, model.SeverityCritical, 20),
		recentTicket(13, model.IssueGST, model.SeverityCritical, 20),
		recentTicket(14, model.IssueGST, model.SeverityCritical, 20),
		recentTicket(15, model.IssueGST, model.SeverityCritical, 20),
	}
	score, flag := e.RiskScore(tickets)
	assert.GreaterOrEqual(t, score, 60.0)
	assert.Equal(t, FlagTrainingNeeded, flag, "exactly 50%% training qualifies")

	// One training ticket fewer drops below half.
	tickets[0].IssueType = model.IssueInventory
	_, flag = e.RiskScore(tickets)
	assert.Equal(t, FlagHighSupportLoad, flag)
}

func TestRiskFlagMonitorClosely(t *testing.T) {
	e := testEngine()

	// Three unresolved high tickets: volume 24, severity 3/4*30 = 22.5
	// -> 46.5, between 40 and 60.
	tickets := []model.Ticket{
		recentTicket(5, model.IssueGST, model.SeverityHigh, -1),
		recentTicket(6, model.IssueGST, model.SeverityHigh, -1),
		recentTicket(7, model.IssueGST, model.SeverityHigh, -1),
	}
	score, flag := e.RiskScore(tickets)
	assert.InDelta(t, 46.5, score, 0.01)
	assert.Equal(t, FlagMonitorClosely, flag)
}

func TestRiskUnknownSeverityCountsAsLow(t *testing.T) {
	e := testEngine()
	score, _ := e.RiskScore([]model.Ticket{
		{IssueType: model.IssueGST, Severity: model.Severity("urgent!!"), CreatedAt: testNow.AddDate(0, 0, -1)},
	})
	// volume 8 + severity 1/4*30 = 7.5
	assert.InDelta(t, 15.5, score, 0.01)
}
