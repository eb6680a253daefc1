package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFallbacks(t *testing.T) {
	assert.Equal(t, SectorManufacturing, ParseSector(" Manufacturing "))
	assert.Equal(t, SectorUnknown, ParseSector("agriculture"))
	assert.Equal(t, SectorUnknown, ParseSector(""))

	assert.Equal(t, SizeLarge, ParseSize("LARGE"))
	assert.Equal(t, SizeUnknown, ParseSize("gigantic"))

	assert.Equal(t, SourceIndiamart, ParseSource("indiamart"))
	assert.Equal(t, SourceUnknown, ParseSource("billboard"))

	assert.Equal(t, LeadStatusWon, ParseLeadStatus("won"))
	assert.Equal(t, LeadStatusUnknown, ParseLeadStatus("archived"))

	assert.Equal(t, IssueGST, ParseIssueType("gst"))
	assert.Equal(t, IssueUnknown, ParseIssueType("billing"))

	assert.Equal(t, SeverityCritical, ParseSeverity("critical"))
	assert.Equal(t, SeverityUnknown, ParseSeverity("urgent"))

	assert.Equal(t, TicketResolved, ParseTicketStatus("resolved"))
	assert.Equal(t, TicketOpen, ParseTicketStatus("pending"))
}

func TestLeadStatusClosed(t *testing.T) {
	assert.True(t, LeadStatusWon.Closed())
	assert.True(t, LeadStatusLost.Closed())
	assert.False(t, LeadStatusNew.Closed())
	assert.False(t, LeadStatusConverted.Closed())
}

func TestNormalizeSet(t *testing.T) {
	got := NormalizeSet([]string{"GST", " gst", "mis", "", "  ", "Tally"})
	assert.Equal(t, []string{"gst", "mis", "tally"}, got)
}

func TestOwnedCoreProducts(t *testing.T) {
	c := Client{ExistingProducts: []string{"TallyPrime", "f1_mis", "crm_x", "tallyprime"}}
	assert.Equal(t, 2, c.OwnedCoreProducts())
}

func TestPackTargets(t *testing.T) {
	all := AutomationPack{}
	assert.True(t, all.Targets(SectorServices))

	mfg := AutomationPack{TargetSectors: []Sector{SectorManufacturing}}
	assert.True(t, mfg.Targets(SectorManufacturing))
	assert.False(t, mfg.Targets(SectorTrading))
}

func TestPackSectorNames(t *testing.T) {
	none := AutomationPack{}
	assert.Nil(t, none.SectorNames())

	p := AutomationPack{TargetSectors: []Sector{SectorManufacturing, SectorTrading}}
	assert.Equal(t, []string{"manufacturing", "trading"}, p.SectorNames())
}

func TestPackRequirementsMet(t *testing.T) {
	none := AutomationPack{}
	assert.True(t, none.RequirementsMet(nil))

	p := AutomationPack{RequiredExistingProducts: []string{"tallyprime", "gst"}}
	assert.True(t, p.RequirementsMet([]string{"TallyPrime", "gst", "hrms"}))
	assert.False(t, p.RequirementsMet([]string{"tallyprime"}))
}

func TestTicketValidate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	ok := Ticket{ClientID: "c1", Subject: "GST mismatch", CreatedAt: earlier, ResolvedAt: &now}
	assert.NoError(t, ok.Validate())

	backwards := Ticket{ClientID: "c1", Subject: "x", CreatedAt: now, ResolvedAt: &earlier}
	assert.Error(t, backwards.Validate())

	assert.Error(t, Ticket{Subject: "x", CreatedAt: now}.Validate())
	assert.Error(t, Ticket{ClientID: "c1", CreatedAt: now}.Validate())
}
