package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/salesradar/salesradar/internal/model"
	"github.com/salesradar/salesradar/internal/store"
)

// Importer loads spreadsheet rows into the store.
type Importer struct {
	store store.Store
}

// NewImporter creates an Importer over the given store.
func NewImporter(st store.Store) *Importer {
	return &Importer{store: st}
}

// Result reports how an import run went. Rows that fail to map or
// persist are skipped, not fatal; the run continues.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, eris.Errorf("ingest: unparseable date %q", s)
}

// ImportLeads reads a lead spreadsheet and creates one lead per row.
// Rows without a name or company are skipped.
func (im *Importer) ImportLeads(ctx context.Context, path string) (Result, error) {
	header, rows, err := ReadRows(path)
	if err != nil {
		return Result{}, err
	}
	cols := columnIndex(header)

	var res Result
	for i, rec := range rows {
		lead, err := leadFromRecord(cols, rec)
		if err != nil {
			zap.L().Warn("skipping lead row", zap.Int("row", i+2), zap.Error(err))
			res.Skipped++
			continue
		}
		if _, err := im.store.CreateLead(ctx, lead); err != nil {
			zap.L().Warn("skipping lead row", zap.Int("row", i+2), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Imported++
	}

	zap.L().Info("lead import complete",
		zap.String("path", path),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func leadFromRecord(cols map[string]int, rec []string) (model.Lead, error) {
	name := field(cols, rec, "name")
	company := field(cols, rec, "company")
	if name == "" || company == "" {
		return model.Lead{}, eris.New("ingest: lead row missing name or company")
	}

	lastContact, err := parseDate(field(cols, rec, "last_contact_date"))
	if err != nil {
		return model.Lead{}, err
	}

	return model.Lead{
		Name:              name,
		Company:           company,
		Email:             field(cols, rec, "email"),
		Phone:             field(cols, rec, "phone"),
		Sector:            model.ParseSector(field(cols, rec, "sector")),
		Size:              model.ParseSize(field(cols, rec, "size")),
		Source:            model.ParseSource(field(cols, rec, "source")),
		City:              field(cols, rec, "city"),
		Region:            field(cols, rec, "region"),
		State:             field(cols, rec, "state"),
		InterestedModules: splitList(field(cols, rec, "interested_modules")),
		LastContactDate:   lastContact,
		Status:            model.ParseLeadStatus(field(cols, rec, "status")),
		Notes:             field(cols, rec, "notes"),
	}, nil
}

// ImportClients reads a client spreadsheet and creates one client per
// row. Rows without a name or company are skipped.
func (im *Importer) ImportClients(ctx context.Context, path string) (Result, error) {
	header, rows, err := ReadRows(path)
	if err != nil {
		return Result{}, err
	}
	cols := columnIndex(header)

	var res Result
	for i, rec := range rows {
		client, err := clientFromRecord(cols, rec)
		if err != nil {
			zap.L().Warn("skipping client row", zap.Int("row", i+2), zap.Error(err))
			res.Skipped++
			continue
		}
		if _, err := im.store.CreateClient(ctx, client); err != nil {
			zap.L().Warn("skipping client row", zap.Int("row", i+2), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Imported++
	}

	zap.L().Info("client import complete",
		zap.String("path", path),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func clientFromRecord(cols map[string]int, rec []string) (model.Client, error) {
	name := field(cols, rec, "name")
	company := field(cols, rec, "company")
	if name == "" || company == "" {
		return model.Client{}, eris.New("ingest: client row missing name or company")
	}

	startDate, err := parseDate(field(cols, rec, "start_date"))
	if err != nil {
		return model.Client{}, err
	}
	lastProject, err := parseDate(field(cols, rec, "last_project_date"))
	if err != nil {
		return model.Client{}, err
	}

	return model.Client{
		Name:              name,
		Company:           company,
		Email:             field(cols, rec, "email"),
		Phone:             field(cols, rec, "phone"),
		Sector:            model.ParseSector(field(cols, rec, "sector")),
		Size:              model.ParseSize(field(cols, rec, "size")),
		City:              field(cols, rec, "city"),
		Region:            field(cols, rec, "region"),
		State:             field(cols, rec, "state"),
		ExistingProducts:  splitList(field(cols, rec, "existing_products")),
		AnnualRevenueBand: field(cols, rec, "annual_revenue_band"),
		StartDate:         startDate,
		LastProjectDate:   lastProject,
		AccountManager:    field(cols, rec, "account_manager"),
		Notes:             field(cols, rec, "notes"),
	}, nil
}

// ImportTickets reads a ticket spreadsheet and creates one ticket per
// row. client_id must reference an existing client.
func (im *Importer) ImportTickets(ctx context.Context, path string) (Result, error) {
	header, rows, err := ReadRows(path)
	if err != nil {
		return Result{}, err
	}
	cols := columnIndex(header)

	var res Result
	for i, rec := range rows {
		ticket, err := ticketFromRecord(cols, rec)
		if err != nil {
			zap.L().Warn("skipping ticket row", zap.Int("row", i+2), zap.Error(err))
			res.Skipped++
			continue
		}
		if _, err := im.store.CreateTicket(ctx, ticket); err != nil {
			zap.L().Warn("skipping ticket row", zap.Int("row", i+2), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Imported++
	}

	zap.L().Info("ticket import complete",
		zap.String("path", path),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func ticketFromRecord(cols map[string]int, rec []string) (model.Ticket, error) {
	created, err := parseDate(field(cols, rec, "created_at"))
	if err != nil {
		return model.Ticket{}, err
	}
	resolved, err := parseDate(field(cols, rec, "resolved_at"))
	if err != nil {
		return model.Ticket{}, err
	}

	ticket := model.Ticket{
		ClientID:        field(cols, rec, "client_id"),
		IssueType:       model.ParseIssueType(field(cols, rec, "issue_type")),
		Severity:        model.ParseSeverity(field(cols, rec, "severity")),
		Subject:         field(cols, rec, "subject"),
		Description:     field(cols, rec, "description"),
		ResolvedAt:      resolved,
		Status:          model.ParseTicketStatus(field(cols, rec, "status")),
		ResolutionNotes: field(cols, rec, "resolution_notes"),
	}
	if created != nil {
		ticket.CreatedAt = *created
	}
	if err := ticket.Validate(); err != nil {
		return model.Ticket{}, err
	}
	return ticket, nil
}
