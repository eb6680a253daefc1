package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesradar/salesradar/internal/model"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewEngine(Defaults(), testNow)
}

func daysAgo(n int) *time.Time {
	d := testNow.AddDate(0, 0, -n)
	return &d
}

func monthsAgo(n int) *time.Time {
	d := testNow.AddDate(0, -n, 0)
	return &d
}

var allActions = []string{
	ActionConvertToClient, ActionLostReview, ActionCallToday,
	ActionFollowUp48h, ActionSendBrochure, ActionDiscoveryCall,
	ActionNurtureEmail, ActionMonthlyCheckIn,
}

func TestScoreLeadBoundsAndActions(t *testing.T) {
	e := testEngine()

	sectors := []model.Sector{model.SectorManufacturing, model.SectorTrading, model.SectorServices, model.SectorUnknown}
	sizes := []model.CompanySize{model.SizeSmall, model.SizeMedium, model.SizeLarge, model.SizeUnknown}
	sources := []model.LeadSource{model.SourceReferral, model.SourceCold, model.SourceUnknown}
	statuses := []model.LeadStatus{model.LeadStatusNew, model.LeadStatusWon, model.LeadStatusLost, model.LeadStatusUnknown}

	for _, sec := range sectors {
		for _, sz := range sizes {
			for _, src := range sources {
				for _, st := range statuses {
					got := e.ScoreLead(model.Lead{
						Sector: sec, Size: sz, Source: src, Status: st,
						InterestedModules: []string{"gst", "mis"},
						LastContactDate:   daysAgo(10),
					})
					assert.GreaterOrEqual(t, got.Score, 0.0)
					assert.LessOrEqual(t, got.Score, 100.0)
					assert.Contains(t, allActions, got.NextAction)
				}
			}
		}
	}
}

func TestScoreLeadWorkedExample(t *testing.T) {
	e := testEngine()

	// manufacturing/large/referral: base = (1.0+1.0+1.0)/3*70 = 70.
	// 3 modules: +15. Contacted 3 days ago: +15. Total = 100.
	got := e.ScoreLead(model.Lead{
		Sector:            model.SectorManufacturing,
		Size:              model.SizeLarge,
		Source:            model.SourceReferral,
		InterestedModules: []string{"tally", "mis", "hrms"},
		LastContactDate:   daysAgo(3),
		Status:            model.LeadStatusQualified,
	})
	assert.InDelta(t, 100.0, got.Score, 0.01)
	assert.Equal(t, ActionFollowUp48h, got.NextAction)
	assert.InDelta(t, 70.0, got.Components["base"], 0.01)
	assert.InDelta(t, 15.0, got.Components["module_bonus"], 0.01)
	assert.InDelta(t, 15.0, got.Components["recency_bonus"], 0.01)
}

func TestScoreLeadClosedStatusesWin(t *testing.T) {
	e := testEngine()

	lead := model.Lead{
		Sector: model.SectorManufacturing, Size: model.SizeLarge,
		Source: model.SourceReferral, LastContactDate: daysAgo(1),
	}

	lead.Status = model.LeadStatusWon
	assert.Equal(t, ActionConvertToClient, e.ScoreLead(lead).NextAction)

	lead.Status = model.LeadStatusLost
	assert.Equal(t, ActionLostReview, e.ScoreLead(lead).NextAction)

	// A hopeless lead that was won still converts.
	cold := model.Lead{Sector: model.SectorUnknown, Size: model.SizeUnknown,
		Source: model.SourceUnknown, Status: model.LeadStatusWon}
	assert.Equal(t, ActionConvertToClient, e.ScoreLead(cold).NextAction)
}

func TestScoreLeadModuleBonusMonotonic(t *testing.T) {
	e := testEngine()
	modules := []string{"tally", "mis", "hrms", "inventory"}

	prev := -1.0
	for n := 0; n <= 4; n++ {
		got := e.ScoreLead(model.Lead{
			Sector: model.SectorTrading, Size: model.SizeMedium,
			Source: model.SourceWebsite, InterestedModules: modules[:n],
			LastContactDate: daysAgo(5),
		})
		require.GreaterOrEqual(t, got.Score, prev, "modules=%d", n)
		prev = got.Score
		assert.LessOrEqual(t, got.Components["module_bonus"], 15.0)
	}
}

func TestScoreLeadDuplicateModulesCollapse(t *testing.T) {
	e := testEngine()
	lead := model.Lead{
		Sector: model.SectorTrading, Size: model.SizeMedium, Source: model.SourceWebsite,
		InterestedModules: []string{"gst", "GST", " gst "},
	}
	assert.InDelta(t, 5.0, e.ScoreLead(lead).Components["module_bonus"], 0.01)
}

func TestContactRecencyWeight(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name string
		date *time.Time
		want float64
	}{
		{"nil date", nil, 0.2},
		{"same day", daysAgo(0), 1.0},
		{"7 days", daysAgo(7), 1.0},
		{"8 days", daysAgo(8), 0.7},
		{"30 days", daysAgo(30), 0.7},
		{"31 days", daysAgo(31), 0.4},
		{"90 days", daysAgo(90), 0.4},
		{"91 days", daysAgo(91), 0.2},
		{"a year", daysAgo(365), 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.contactRecencyWeight(tt.date), 0.001)
		})
	}
}

func TestScoreLeadActionTiers(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name string
		lead model.Lead
		want string
	}{
		{
			// High score, stale contact (recency 0.4 < 0.7).
			"high priority stale contact",
			model.Lead{Sector: model.SectorManufacturing, Size: model.SizeLarge,
				Source: model.SourceReferral, InterestedModules: []string{"tally", "mis", "hrms"},
				LastContactDate: daysAgo(60)},
			ActionCallToday,
		},
		{
			// Mid score with 2+ modules: trading/medium/indiamart =
			// (0.7+0.7+0.6)/3*70 = 46.7, +10 modules, +3 recency = 59.7.
			"brochure tier",
			model.Lead{Sector: model.SectorTrading, Size: model.SizeMedium,
				Source: model.SourceIndiamart, InterestedModules: []string{"gst", "mis"}},
			ActionSendBrochure,
		},
		{
			// Same tier, single module.
			"discovery tier",
			model.Lead{Sector: model.SectorTrading, Size: model.SizeMedium,
				Source: model.SourceIndiamart, InterestedModules: []string{"gst"}},
			ActionDiscoveryCall,
		},
		{
			// services/small/cold = (0.5+0.4+0.3)/3*70 = 28, +3 recency = 31.
			"nurture tier",
			model.Lead{Sector: model.SectorServices, Size: model.SizeSmall,
				Source: model.SourceCold},
			ActionNurtureEmail,
		},
		{
			// All unknown: (0.3+0.3+0.3)/3*70 = 21, +3 recency = 24.
			"low priority tier",
			model.Lead{Sector: model.SectorUnknown, Size: model.SizeUnknown,
				Source: model.SourceUnknown},
			ActionMonthlyCheckIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ScoreLead(tt.lead).NextAction)
		})
	}
}
