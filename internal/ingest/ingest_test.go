package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesradar/salesradar/internal/model"
	"github.com/salesradar/salesradar/internal/store"
)

// captureStore records created entities without persisting anything.
type captureStore struct {
	store.Store
	leads   []model.Lead
	clients []model.Client
	tickets []model.Ticket
}

func (c *captureStore) CreateLead(_ context.Context, l model.Lead) (*model.Lead, error) {
	c.leads = append(c.leads, l)
	return &l, nil
}

func (c *captureStore) CreateClient(_ context.Context, cl model.Client) (*model.Client, error) {
	c.clients = append(c.clients, cl)
	return &cl, nil
}

func (c *captureStore) CreateTicket(_ context.Context, t model.Ticket) (*model.Ticket, error) {
	c.tickets = append(c.tickets, t)
	return &t, nil
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportLeads_MapsColumnsByHeader(t *testing.T) {
	// headers intentionally mixed-case with spaces and shuffled order
	path := writeCSV(t, `Company,Name,Sector,Size,Source,State,Interested Modules,Last Contact Date,Status
Patil Fabrication,Asha Patil,Manufacturing,medium,referral,Maharashtra,gst; inventory,2026-02-01,qualified
`)
	cs := &captureStore{}
	res, err := NewImporter(cs).ImportLeads(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1}, res)

	require.Len(t, cs.leads, 1)
	lead := cs.leads[0]
	assert.Equal(t, "Asha Patil", lead.Name)
	assert.Equal(t, model.SectorManufacturing, lead.Sector)
	assert.Equal(t, model.SourceReferral, lead.Source)
	assert.Equal(t, []string{"gst", "inventory"}, lead.InterestedModules)
	assert.Equal(t, model.LeadStatusQualified, lead.Status)
	require.NotNil(t, lead.LastContactDate)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *lead.LastContactDate)
}

func TestImportLeads_SkipsBadRows(t *testing.T) {
	path := writeCSV(t, `name,company,last_contact_date
Good Lead,Good Co,2026-01-15
,Missing Name Co,
Bad Date,Bad Date Co,someday
`)
	cs := &captureStore{}
	res, err := NewImporter(cs).ImportLeads(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1, Skipped: 2}, res)
}

func TestImportLeads_UnknownEnumValuesDegrade(t *testing.T) {
	path := writeCSV(t, `name,company,sector,size,source,status
X,Y Co,agriculture,huge,billboard,weird
`)
	cs := &captureStore{}
	_, err := NewImporter(cs).ImportLeads(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, cs.leads, 1)
	assert.Equal(t, model.SectorUnknown, cs.leads[0].Sector)
	assert.Equal(t, model.SizeUnknown, cs.leads[0].Size)
	assert.Equal(t, model.SourceUnknown, cs.leads[0].Source)
	assert.Equal(t, model.LeadStatusUnknown, cs.leads[0].Status)
}

func TestImportClients(t *testing.T) {
	path := writeCSV(t, `name,company,sector,existing_products,start_date,account_manager
Ravi,Kumar Traders,trading,"tallyprime, gst",2023-06-01,Sneha
`)
	cs := &captureStore{}
	res, err := NewImporter(cs).ImportClients(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1}, res)

	require.Len(t, cs.clients, 1)
	assert.Equal(t, []string{"tallyprime", "gst"}, cs.clients[0].ExistingProducts)
	assert.Equal(t, "Sneha", cs.clients[0].AccountManager)
}

func TestImportTickets_ValidatesRows(t *testing.T) {
	path := writeCSV(t, `client_id,issue_type,severity,subject,created_at,resolved_at,status
client-1,gst,high,Filing mismatch,2026-01-10,2026-01-12,resolved
client-2,inventory,low,,2026-01-10,,open
`)
	cs := &captureStore{}
	res, err := NewImporter(cs).ImportTickets(context.Background(), path)
	require.NoError(t, err)
	// second row has no subject
	assert.Equal(t, Result{Imported: 1, Skipped: 1}, res)

	require.Len(t, cs.tickets, 1)
	assert.Equal(t, model.IssueGST, cs.tickets[0].IssueType)
	assert.Equal(t, model.TicketResolved, cs.tickets[0].Status)
	require.NotNil(t, cs.tickets[0].ResolvedAt)
}

func TestReadRows_UnsupportedExtension(t *testing.T) {
	_, _, err := ReadRows("data.pdf")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b", "c"}, splitList("a; b,c"))
}
