package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/salesradar/salesradar/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	company            TEXT NOT NULL,
	email              TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	sector             TEXT NOT NULL DEFAULT 'unknown',
	size               TEXT NOT NULL DEFAULT 'unknown',
	source             TEXT NOT NULL DEFAULT 'unknown',
	city               TEXT NOT NULL DEFAULT '',
	region             TEXT NOT NULL DEFAULT '',
	state              TEXT NOT NULL DEFAULT '',
	interested_modules TEXT NOT NULL DEFAULT '[]',
	last_contact_date  DATETIME,
	status             TEXT NOT NULL DEFAULT 'new',
	notes              TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS clients (
	id                  TEXT PRIMARY KEY,
	parent_id           TEXT REFERENCES clients(id),
	name                TEXT NOT NULL,
	company             TEXT NOT NULL,
	email               TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL DEFAULT '',
	sector              TEXT NOT NULL DEFAULT 'unknown',
	size                TEXT NOT NULL DEFAULT 'unknown',
	city                TEXT NOT NULL DEFAULT '',
	region              TEXT NOT NULL DEFAULT '',
	state               TEXT NOT NULL DEFAULT '',
	existing_products   TEXT NOT NULL DEFAULT '[]',
	annual_revenue_band TEXT NOT NULL DEFAULT '',
	start_date          DATETIME,
	last_project_date   DATETIME,
	account_manager     TEXT NOT NULL DEFAULT '',
	notes               TEXT NOT NULL DEFAULT '',
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tickets (
	id               TEXT PRIMARY KEY,
	client_id        TEXT NOT NULL REFERENCES clients(id),
	issue_type       TEXT NOT NULL DEFAULT 'unknown',
	severity         TEXT NOT NULL DEFAULT 'unknown',
	subject          TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	resolved_at      DATETIME,
	status           TEXT NOT NULL DEFAULT 'open',
	resolution_notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS automation_packs (
	id                         TEXT PRIMARY KEY,
	name                       TEXT NOT NULL,
	code                       TEXT NOT NULL UNIQUE,
	description                TEXT NOT NULL DEFAULT '',
	target_sectors             TEXT NOT NULL DEFAULT '[]',
	required_existing_products TEXT NOT NULL DEFAULT '[]',
	price_band                 TEXT NOT NULL DEFAULT '',
	is_active                  INTEGER NOT NULL DEFAULT 1,
	created_at                 DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS client_automations (
	id             TEXT PRIMARY KEY,
	client_id      TEXT NOT NULL REFERENCES clients(id),
	pack_id        TEXT NOT NULL REFERENCES automation_packs(id),
	installed_date DATETIME,
	notes          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS scoring_configs (
	key      TEXT PRIMARY KEY,
	value    REAL NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	label    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS score_histories (
	id          TEXT PRIMARY KEY,
	entity_id   TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	score       REAL NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_state ON leads(state);
CREATE INDEX IF NOT EXISTS idx_clients_state ON clients(state);
CREATE INDEX IF NOT EXISTS idx_tickets_client_id ON tickets(client_id);
CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at);
CREATE INDEX IF NOT EXISTS idx_client_automations_client_id ON client_automations(client_id);
CREATE INDEX IF NOT EXISTS idx_score_histories_entity ON score_histories(entity_type, entity_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Leads

const leadColumns = `id, name, company, email, phone, sector, size, source,
	city, region, state, interested_modules, last_contact_date, status, notes, created_at`

func (s *SQLiteStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	modulesJSON, err := json.Marshal(model.NormalizeSet(lead.InterestedModules))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal modules")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, lead.Company, lead.Email, lead.Phone,
		string(lead.Sector), string(lead.Size), string(lead.Source),
		lead.City, lead.Region, lead.State, string(modulesJSON),
		nullTime(lead.LastContactDate), string(lead.Status), lead.Notes, lead.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}
	return &lead, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	return scanLead(row)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Sector != "" {
		query += ` AND sector = ?`
		args = append(args, string(filter.Sector))
	}
	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, filter.State)
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, lead model.Lead) error {
	modulesJSON, err := json.Marshal(model.NormalizeSet(lead.InterestedModules))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal modules")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET name = ?, company = ?, email = ?, phone = ?,
		 sector = ?, size = ?, source = ?, city = ?, region = ?, state = ?,
		 interested_modules = ?, last_contact_date = ?, status = ?, notes = ?
		 WHERE id = ?`,
		lead.Name, lead.Company, lead.Email, lead.Phone,
		string(lead.Sector), string(lead.Size), string(lead.Source),
		lead.City, lead.Region, lead.State, string(modulesJSON),
		nullTime(lead.LastContactDate), string(lead.Status), lead.Notes,
		lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", lead.ID)
	}
	return checkRowsAffected(res, "lead", lead.ID)
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

// Clients

const clientColumns = `id, parent_id, name, company, email, phone, sector, size,
	city, region, state, existing_products, annual_revenue_band,
	start_date, last_project_date, account_manager, notes, created_at`

func (s *SQLiteStore) CreateClient(ctx context.Context, client model.Client) (*model.Client, error) {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}
	productsJSON, err := json.Marshal(model.NormalizeSet(client.ExistingProducts))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal products")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID, client.ParentID, client.Name, client.Company, client.Email, client.Phone,
		string(client.Sector), string(client.Size),
		client.City, client.Region, client.State,
		string(productsJSON), client.AnnualRevenueBand,
		nullTime(client.StartDate), nullTime(client.LastProjectDate),
		client.AccountManager, client.Notes, client.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert client")
	}
	return &client, nil
}

func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	return scanClient(row)
}

func (s *SQLiteStore) ListClients(ctx context.Context, filter ClientFilter) ([]model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE 1=1`
	var args []any

	if filter.Sector != "" {
		query += ` AND sector = ?`
		args = append(args, string(filter.Sector))
	}
	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, filter.State)
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list clients")
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, eris.Wrap(rows.Err(), "sqlite: list clients iterate")
}

func (s *SQLiteStore) UpdateClient(ctx context.Context, client model.Client) error {
	productsJSON, err := json.Marshal(model.NormalizeSet(client.ExistingProducts))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal products")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET parent_id = ?, name = ?, company = ?, email = ?, phone = ?,
		 sector = ?, size = ?, city = ?, region = ?, state = ?,
		 existing_products = ?, annual_revenue_band = ?,
		 start_date = ?, last_project_date = ?, account_manager = ?, notes = ?
		 WHERE id = ?`,
		client.ParentID, client.Name, client.Company, client.Email, client.Phone,
		string(client.Sector), string(client.Size),
		client.City, client.Region, client.State,
		string(productsJSON), client.AnnualRevenueBand,
		nullTime(client.StartDate), nullTime(client.LastProjectDate),
		client.AccountManager, client.Notes,
		client.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update client %s", client.ID)
	}
	return checkRowsAffected(res, "client", client.ID)
}

func (s *SQLiteStore) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete client %s", id)
	}
	return checkRowsAffected(res, "client", id)
}

// Tickets

const ticketColumns = `id, client_id, issue_type, severity, subject, description,
	created_at, resolved_at, status, resolution_notes`

func (s *SQLiteStore) CreateTicket(ctx context.Context, ticket model.Ticket) (*model.Ticket, error) {
	if err := ticket.Validate(); err != nil {
		return nil, err
	}
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	if ticket.Status == "" {
		ticket.Status = model.TicketOpen
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (`+ticketColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.ID, ticket.ClientID, string(ticket.IssueType), string(ticket.Severity),
		ticket.Subject, ticket.Description, ticket.CreatedAt,
		nullTime(ticket.ResolvedAt), string(ticket.Status), ticket.ResolutionNotes,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert ticket")
	}
	return &ticket, nil
}

func (s *SQLiteStore) ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	var args []any

	if filter.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.IssueType != "" {
		query += ` AND issue_type = ?`
		args = append(args, string(filter.IssueType))
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tickets")
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, eris.Wrap(rows.Err(), "sqlite: list tickets iterate")
}

func (s *SQLiteStore) UpdateTicket(ctx context.Context, ticket model.Ticket) error {
	if err := ticket.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET issue_type = ?, severity = ?, subject = ?, description = ?,
		 resolved_at = ?, status = ?, resolution_notes = ? WHERE id = ?`,
		string(ticket.IssueType), string(ticket.Severity), ticket.Subject, ticket.Description,
		nullTime(ticket.ResolvedAt), string(ticket.Status), ticket.ResolutionNotes,
		ticket.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update ticket %s", ticket.ID)
	}
	return checkRowsAffected(res, "ticket", ticket.ID)
}

func (s *SQLiteStore) DeleteTicket(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete ticket %s", id)
	}
	return checkRowsAffected(res, "ticket", id)
}

func (s *SQLiteStore) TicketStats(ctx context.Context) (*TicketStats, error) {
	stats := &TicketStats{
		ByType:   make(map[string]int),
		ByStatus: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT issue_type, COUNT(*) FROM tickets GROUP BY issue_type`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: ticket stats by type")
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan type count")
		}
		stats.ByType[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: ticket stats by type iterate")
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: ticket stats by status")
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		stats.ByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: ticket stats by status iterate")
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT t.client_id, c.company, COUNT(*) AS n
		 FROM tickets t JOIN clients c ON c.id = t.client_id
		 GROUP BY t.client_id, c.company
		 ORDER BY n DESC, c.company ASC
		 LIMIT 5`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: ticket stats top clients")
	}
	defer rows.Close()
	for rows.Next() {
		var tc ClientTicketCount
		if err := rows.Scan(&tc.ClientID, &tc.Company, &tc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan top client")
		}
		stats.TopClients = append(stats.TopClients, tc)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: ticket stats top clients iterate")
}

// Automation packs

const packColumns = `id, name, code, description, target_sectors,
	required_existing_products, price_band, is_active, created_at`

func (s *SQLiteStore) CreatePack(ctx context.Context, pack model.AutomationPack) (*model.AutomationPack, error) {
	if pack.ID == "" {
		pack.ID = uuid.New().String()
	}
	if pack.CreatedAt.IsZero() {
		pack.CreatedAt = time.Now().UTC()
	}
	sectorsJSON, err := json.Marshal(pack.TargetSectors)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal target sectors")
	}
	reqJSON, err := json.Marshal(model.NormalizeSet(pack.RequiredExistingProducts))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal required products")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO automation_packs (`+packColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pack.ID, pack.Name, pack.Code, pack.Description,
		string(sectorsJSON), string(reqJSON), pack.PriceBand, pack.IsActive, pack.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert pack")
	}
	return &pack, nil
}

func (s *SQLiteStore) ListPacks(ctx context.Context, activeOnly bool) ([]model.AutomationPack, error) {
	query := `SELECT ` + packColumns + ` FROM automation_packs`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list packs")
	}
	defer rows.Close()

	var packs []model.AutomationPack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, *p)
	}
	return packs, eris.Wrap(rows.Err(), "sqlite: list packs iterate")
}

func (s *SQLiteStore) UpdatePack(ctx context.Context, pack model.AutomationPack) error {
	sectorsJSON, err := json.Marshal(pack.TargetSectors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal target sectors")
	}
	reqJSON, err := json.Marshal(model.NormalizeSet(pack.RequiredExistingProducts))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal required products")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE automation_packs SET name = ?, code = ?, description = ?,
		 target_sectors = ?, required_existing_products = ?, price_band = ?, is_active = ?
		 WHERE id = ?`,
		pack.Name, pack.Code, pack.Description,
		string(sectorsJSON), string(reqJSON), pack.PriceBand, pack.IsActive,
		pack.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update pack %s", pack.ID)
	}
	return checkRowsAffected(res, "pack", pack.ID)
}

func (s *SQLiteStore) DeletePack(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM automation_packs WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete pack %s", id)
	}
	return checkRowsAffected(res, "pack", id)
}

func (s *SQLiteStore) InstallPack(ctx context.Context, install model.ClientAutomation) error {
	if install.ID == "" {
		install.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_automations (id, client_id, pack_id, installed_date, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		install.ID, install.ClientID, install.PackID,
		nullTime(install.InstalledDate), install.Notes,
	)
	return eris.Wrap(err, "sqlite: install pack")
}

func (s *SQLiteStore) InstalledPackCodes(ctx context.Context, clientID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.code FROM client_automations ca
		 JOIN automation_packs p ON p.id = ca.pack_id
		 WHERE ca.client_id = ?
		 ORDER BY p.code`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: installed packs for %s", clientID)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pack code")
		}
		codes = append(codes, code)
	}
	return codes, eris.Wrap(rows.Err(), "sqlite: installed packs iterate")
}

func (s *SQLiteStore) InstallationCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.code, COUNT(ca.id) FROM automation_packs p
		 LEFT JOIN client_automations ca ON ca.pack_id = p.id
		 GROUP BY p.code`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: installation counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan installation count")
		}
		counts[code] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: installation counts iterate")
}

// Weight configuration

func (s *SQLiteStore) WeightEntries(ctx context.Context) ([]model.WeightEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, category, label FROM scoring_configs ORDER BY key`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: weight entries")
	}
	defer rows.Close()

	var entries []model.WeightEntry
	for rows.Next() {
		var e model.WeightEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Category, &e.Label); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan weight entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: weight entries iterate")
}

func (s *SQLiteStore) UpsertWeightEntry(ctx context.Context, entry model.WeightEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scoring_configs (key, value, category, label) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		 category = excluded.category, label = excluded.label`,
		entry.Key, entry.Value, entry.Category, entry.Label,
	)
	return eris.Wrapf(err, "sqlite: upsert weight %s", entry.Key)
}

// Score history

func (s *SQLiteStore) SaveScoreHistory(ctx context.Context, records []model.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin score history tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO score_histories (id, entity_id, entity_type, score, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare score history insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.RecordedAt.IsZero() {
			r.RecordedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.EntityID, r.EntityType, r.Score, r.RecordedAt); err != nil {
			return eris.Wrapf(err, "sqlite: insert score history %s", r.EntityID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit score history")
}

func (s *SQLiteStore) ScoreHistory(ctx context.Context, entityType, entityID string, limit int) ([]model.ScoreRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_id, entity_type, score, recorded_at FROM score_histories
		 WHERE entity_type = ? AND entity_id = ?
		 ORDER BY recorded_at DESC LIMIT ?`,
		entityType, entityID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: score history for %s", entityID)
	}
	defer rows.Close()

	var records []model.ScoreRecord
	for rows.Next() {
		var r model.ScoreRecord
		if err := rows.Scan(&r.ID, &r.EntityID, &r.EntityType, &r.Score, &r.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: score history iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var modulesJSON string
	var lastContact sql.NullTime

	err := row.Scan(&l.ID, &l.Name, &l.Company, &l.Email, &l.Phone,
		&l.Sector, &l.Size, &l.Source,
		&l.City, &l.Region, &l.State, &modulesJSON,
		&lastContact, &l.Status, &l.Notes, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("lead not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}

	if err := json.Unmarshal([]byte(modulesJSON), &l.InterestedModules); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal modules")
	}
	l.LastContactDate = timePtr(lastContact)
	return &l, nil
}

func scanClient(row scannable) (*model.Client, error) {
	var c model.Client
	var parentID sql.NullString
	var productsJSON string
	var startDate, lastProject sql.NullTime

	err := row.Scan(&c.ID, &parentID, &c.Name, &c.Company, &c.Email, &c.Phone,
		&c.Sector, &c.Size,
		&c.City, &c.Region, &c.State,
		&productsJSON, &c.AnnualRevenueBand,
		&startDate, &lastProject, &c.AccountManager, &c.Notes, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("client not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan client")
	}

	if parentID.Valid {
		c.ParentID = &parentID.String
	}
	if err := json.Unmarshal([]byte(productsJSON), &c.ExistingProducts); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal products")
	}
	c.StartDate = timePtr(startDate)
	c.LastProjectDate = timePtr(lastProject)
	return &c, nil
}

func scanTicket(row scannable) (*model.Ticket, error) {
	var t model.Ticket
	var resolvedAt sql.NullTime

	err := row.Scan(&t.ID, &t.ClientID, &t.IssueType, &t.Severity,
		&t.Subject, &t.Description, &t.CreatedAt,
		&resolvedAt, &t.Status, &t.ResolutionNotes)
	if err == sql.ErrNoRows {
		return nil, eris.New("ticket not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan ticket")
	}
	t.ResolvedAt = timePtr(resolvedAt)
	return &t, nil
}

func scanPack(row scannable) (*model.AutomationPack, error) {
	var p model.AutomationPack
	var sectorsJSON, reqJSON string

	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Description,
		&sectorsJSON, &reqJSON, &p.PriceBand, &p.IsActive, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("pack not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan pack")
	}

	if err := json.Unmarshal([]byte(sectorsJSON), &p.TargetSectors); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal target sectors")
	}
	if err := json.Unmarshal([]byte(reqJSON), &p.RequiredExistingProducts); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal required products")
	}
	return &p, nil
}
