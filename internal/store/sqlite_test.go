package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesradar/salesradar/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testClient(t *testing.T, st *SQLiteStore, company string) *model.Client {
	t.Helper()
	c, err := st.CreateClient(context.Background(), model.Client{
		Name:             "Owner",
		Company:          company,
		Sector:           model.SectorManufacturing,
		Size:             model.SizeMedium,
		State:            "Maharashtra",
		ExistingProducts: []string{"TallyPrime"},
	})
	require.NoError(t, err)
	return c
}

// --- Leads ---

func TestSQLite_Lead_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	contact := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	created, err := st.CreateLead(ctx, model.Lead{
		Name:              "Asha Patil",
		Company:           "Patil Fabrication",
		Sector:            model.SectorManufacturing,
		Size:              model.SizeMedium,
		Source:            model.SourceReferral,
		City:              "Pune",
		State:             "Maharashtra",
		InterestedModules: []string{"GST", "inventory", "gst"},
		LastContactDate:   &contact,
		Status:            model.LeadStatusQualified,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := st.GetLead(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Patil Fabrication", got.Company)
	assert.Equal(t, model.SourceReferral, got.Source)
	assert.Equal(t, model.LeadStatusQualified, got.Status)
	// stored normalized: deduped, lowercased, sorted
	assert.Equal(t, []string{"gst", "inventory"}, got.InterestedModules)
	require.NotNil(t, got.LastContactDate)
	assert.True(t, got.LastContactDate.Equal(contact))
}

func TestSQLite_Lead_Get_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetLead(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestSQLite_Lead_List_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	mk := func(company, state string, status model.LeadStatus) {
		_, err := st.CreateLead(ctx, model.Lead{
			Name: "x", Company: company, State: state, Status: status,
			Sector: model.SectorServices, Size: model.SizeSmall, Source: model.SourceWebsite,
		})
		require.NoError(t, err)
	}
	mk("A", "Maharashtra", model.LeadStatusNew)
	mk("B", "Maharashtra", model.LeadStatusWon)
	mk("C", "Gujarat", model.LeadStatusNew)

	byState, err := st.ListLeads(ctx, LeadFilter{State: "Maharashtra"})
	require.NoError(t, err)
	assert.Len(t, byState, 2)

	byStatus, err := st.ListLeads(ctx, LeadFilter{Status: model.LeadStatusNew})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	limited, err := st.ListLeads(ctx, LeadFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_Lead_UpdateAndDelete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateLead(ctx, model.Lead{
		Name: "x", Company: "Before", Status: model.LeadStatusNew,
		Sector: model.SectorTrading, Size: model.SizeSmall, Source: model.SourceCold,
	})
	require.NoError(t, err)

	created.Company = "After"
	created.Status = model.LeadStatusContacted
	require.NoError(t, st.UpdateLead(ctx, *created))

	got, err := st.GetLead(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Company)
	assert.Equal(t, model.LeadStatusContacted, got.Status)

	require.NoError(t, st.DeleteLead(ctx, created.ID))
	_, err = st.GetLead(ctx, created.ID)
	assert.Error(t, err)

	// deleting again reports not found
	assert.Error(t, st.DeleteLead(ctx, created.ID))
}

// --- Clients ---

func TestSQLite_Client_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	created, err := st.CreateClient(ctx, model.Client{
		Name:              "Ravi Kumar",
		Company:           "Kumar Traders",
		Sector:            model.SectorTrading,
		Size:              model.SizeLarge,
		State:             "Gujarat",
		ExistingProducts:  []string{"TallyPrime", "GST"},
		AnnualRevenueBand: "5-10cr",
		StartDate:         &start,
		AccountManager:    "Sneha",
	})
	require.NoError(t, err)

	got, err := st.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kumar Traders", got.Company)
	assert.Equal(t, []string{"gst", "tallyprime"}, got.ExistingProducts)
	assert.Nil(t, got.ParentID)
	assert.Nil(t, got.LastProjectDate)
	require.NotNil(t, got.StartDate)
	assert.True(t, got.StartDate.Equal(start))
}

func TestSQLite_Client_ParentID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	parent := testClient(t, st, "Parent Co")
	child, err := st.CreateClient(ctx, model.Client{
		Name: "x", Company: "Branch Co", ParentID: &parent.ID,
	})
	require.NoError(t, err)

	got, err := st.GetClient(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent.ID, *got.ParentID)
}

// --- Tickets ---

func TestSQLite_Ticket_CreateValidates(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.CreateTicket(context.Background(), model.Ticket{Subject: "no client"})
	assert.Error(t, err)
}

func TestSQLite_Ticket_ListByClient(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c1 := testClient(t, st, "One")
	c2 := testClient(t, st, "Two")

	for i, clientID := range []string{c1.ID, c1.ID, c2.ID} {
		_, err := st.CreateTicket(ctx, model.Ticket{
			ClientID:  clientID,
			IssueType: model.IssueGST,
			Severity:  model.SeverityHigh,
			Subject:   "filing mismatch",
			CreatedAt: time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	tickets, err := st.ListTickets(ctx, TicketFilter{ClientID: c1.ID})
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestSQLite_TicketStats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	busy := testClient(t, st, "Busy Co")
	quiet := testClient(t, st, "Quiet Co")

	mk := func(clientID string, it model.IssueType, status model.TicketStatus) {
		_, err := st.CreateTicket(ctx, model.Ticket{
			ClientID: clientID, IssueType: it, Severity: model.SeverityLow,
			Subject: "s", Status: status,
		})
		require.NoError(t, err)
	}
	mk(busy.ID, model.IssueGST, model.TicketOpen)
	mk(busy.ID, model.IssueGST, model.TicketResolved)
	mk(busy.ID, model.IssueTraining, model.TicketOpen)
	mk(quiet.ID, model.IssueReport, model.TicketClosed)

	stats, err := st.TicketStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ByType["gst"])
	assert.Equal(t, 1, stats.ByType["training"])
	assert.Equal(t, 2, stats.ByStatus["open"])
	require.NotEmpty(t, stats.TopClients)
	assert.Equal(t, busy.ID, stats.TopClients[0].ClientID)
	assert.Equal(t, 3, stats.TopClients[0].Count)
}

// --- Packs ---

func TestSQLite_Pack_RoundTripAndActiveFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	active, err := st.CreatePack(ctx, model.AutomationPack{
		Name:          "GST Health Check",
		Code:          "GST_HEALTH",
		TargetSectors: []model.Sector{model.SectorManufacturing, model.SectorTrading},
		IsActive:      true,
	})
	require.NoError(t, err)

	_, err = st.CreatePack(ctx, model.AutomationPack{
		Name: "Retired", Code: "RETIRED", IsActive: false,
	})
	require.NoError(t, err)

	all, err := st.ListPacks(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	activeOnly, err := st.ListPacks(ctx, true)
	require.NoError(t, err)
	require.Len(t, activeOnly, 1)
	assert.Equal(t, active.Code, activeOnly[0].Code)
	assert.Equal(t, []model.Sector{model.SectorManufacturing, model.SectorTrading}, activeOnly[0].TargetSectors)
}

func TestSQLite_InstalledPackCodes(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	client := testClient(t, st, "Installer Co")
	p1, err := st.CreatePack(ctx, model.AutomationPack{Name: "a", Code: "INV_ALERT", IsActive: true})
	require.NoError(t, err)
	p2, err := st.CreatePack(ctx, model.AutomationPack{Name: "b", Code: "F1_MIS", IsActive: true})
	require.NoError(t, err)

	require.NoError(t, st.InstallPack(ctx, model.ClientAutomation{ClientID: client.ID, PackID: p1.ID}))
	require.NoError(t, st.InstallPack(ctx, model.ClientAutomation{ClientID: client.ID, PackID: p2.ID}))

	codes, err := st.InstalledPackCodes(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"F1_MIS", "INV_ALERT"}, codes)

	counts, err := st.InstallationCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["INV_ALERT"])
	assert.Equal(t, 1, counts["F1_MIS"])
}

// --- Weights ---

func TestSQLite_WeightEntries_Upsert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertWeightEntry(ctx, model.WeightEntry{
		Key: "sector_manufacturing", Value: 1.0, Category: "sector",
	}))
	require.NoError(t, st.UpsertWeightEntry(ctx, model.WeightEntry{
		Key: "sector_manufacturing", Value: 0.9, Category: "sector",
	}))

	entries, err := st.WeightEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0.9, entries[0].Value)
}

// --- Score history ---

func TestSQLite_ScoreHistory_SaveAndQuery(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	records := []model.ScoreRecord{
		{EntityID: "lead-1", EntityType: "lead", Score: 72.5, RecordedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{EntityID: "lead-1", EntityType: "lead", Score: 80.0, RecordedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{EntityID: "client-1", EntityType: "client", Score: 55.0, RecordedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, st.SaveScoreHistory(ctx, records))

	history, err := st.ScoreHistory(ctx, "lead", "lead-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// most recent first
	assert.Equal(t, 80.0, history[0].Score)
	assert.Equal(t, 72.5, history[1].Score)
}

func TestSQLite_ScoreHistory_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	require.NoError(t, st.SaveScoreHistory(context.Background(), nil))

	history, err := st.ScoreHistory(context.Background(), "lead", "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
