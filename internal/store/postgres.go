package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/salesradar/salesradar/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it too, which keeps driver tests off a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	interested_modules JSONB NOT NULL DEFAULT '[]',
	last_contact_date  TIMESTAMPTZ,
	status             TEXT NOT NULL DEFAULT 'new',
	notes              TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS clients (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	existing_products   JSONB NOT NULL DEFAULT '[]',
	annual_revenue_band TEXT NOT NULL DEFAULT '',
	start_date          TIMESTAMPTZ,
	last_project_date   TIMESTAMPTZ,
	account_manager     TEXT NOT NULL DEFAULT '',
	notes               TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tickets (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id        TEXT NOT NULL REFERENCES clients(id),
	issue_type       TEXT NOT NULL DEFAULT 'unknown',
	severity         TEXT NOT NULL DEFAULT 'unknown',
	subject          TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	resolved_at      TIMESTAMPTZ,
	status           TEXT NOT NULL DEFAULT 'open',
	resolution_notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS automation_packs (
	id                         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                       TEXT NOT NULL,
	code                       TEXT NOT NULL UNIQUE,
	description                TEXT NOT NULL DEFAULT '',
	target_sectors             JSONB NOT NULL DEFAULT '[]',
	required_existing_products JSONB NOT NULL DEFAULT '[]',
	price_band                 TEXT NOT NULL DEFAULT '',
	is_active                  BOOLEAN NOT NULL DEFAULT true,
	created_at                 TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS client_automations (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id      TEXT NOT NULL REFERENCES clients(id),
	pack_id        TEXT NOT NULL REFERENCES automation_packs(id),
	installed_date TIMESTAMPTZ,
	notes          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS scoring_configs (
	key      TEXT PRIMARY KEY,
	value    DOUBLE PRECISION NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	label    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS score_histories (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	entity_id   TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_state ON leads(state);
CREATE INDEX IF NOT EXISTS idx_clients_state ON clients(state);
CREATE INDEX IF NOT EXISTS idx_tickets_client_id ON tickets(client_id);
CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at);
CREATE INDEX IF NOT EXISTS idx_client_automations_client_id ON client_automations(client_id);
CREATE INDEX IF NOT EXISTS idx_score_histories_entity ON score_histories(entity_type, entity_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Leads

func (s *PostgresStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	modulesJSON, err := json.Marshal(model.NormalizeSet(lead.InterestedModules))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal modules")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (id, name, company, email, phone, sector, size, source,
		 city, region, state, interested_modules, last_contact_date, status, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		lead.ID, lead.Name, lead.Company, lead.Email, lead.Phone,
		string(lead.Sector), string(lead.Size), string(lead.Source),
		lead.City, lead.Region, lead.State, modulesJSON,
		lead.LastContactDate, string(lead.Status), lead.Notes, lead.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lead")
	}
	return &lead, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, company, email, phone, sector, size, source,
		 city, region, state, interested_modules, last_contact_date, status, notes, created_at
		 FROM leads WHERE id = $1`, id)
	l, err := scanLeadPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("lead not found: %s", id)
	}
	return l, err
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, name, company, email, phone, sector, size, source,
	 city, region, state, interested_modules, last_contact_date, status, notes, created_at
	 FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Sector != "" {
		query += fmt.Sprintf(` AND sector = $%d`, argIdx)
		args = append(args, string(filter.Sector))
		argIdx++
	}
	if filter.State != "" {
		query += fmt.Sprintf(` AND state = $%d`, argIdx)
		args = append(args, filter.State)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLeadPG(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) UpdateLead(ctx context.Context, lead model.Lead) error {
	modulesJSON, err := json.Marshal(model.NormalizeSet(lead.InterestedModules))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal modules")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET name = $1, company = $2, email = $3, phone = $4,
		 sector = $5, size = $6, source = $7, city = $8, region = $9, state = $10,
		 interested_modules = $11, last_contact_date = $12, status = $13, notes = $14
		 WHERE id = $15`,
		lead.Name, lead.Company, lead.Email, lead.Phone,
		string(lead.Sector), string(lead.Size), string(lead.Source),
		lead.City, lead.Region, lead.State, modulesJSON,
		lead.LastContactDate, string(lead.Status), lead.Notes,
		lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", lead.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

// Clients

func (s *PostgresStore) CreateClient(ctx context.Context, client model.Client) (*model.Client, error) {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}
	productsJSON, err := json.Marshal(model.NormalizeSet(client.ExistingProducts))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal products")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO clients (id, parent_id, name, company, email, phone, sector, size,
		 city, region, state, existing_products, annual_revenue_band,
		 start_date, last_project_date, account_manager, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		client.ID, client.ParentID, client.Name, client.Company, client.Email, client.Phone,
		string(client.Sector), string(client.Size),
		client.City, client.Region, client.State,
		productsJSON, client.AnnualRevenueBand,
		client.StartDate, client.LastProjectDate,
		client.AccountManager, client.Notes, client.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert client")
	}
	return &client, nil
}

func (s *PostgresStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, parent_id, name, company, email, phone, sector, size,
		 city, region, state, existing_products, annual_revenue_band,
		 start_date, last_project_date, account_manager, notes, created_at
		 FROM clients WHERE id = $1`, id)
	c, err := scanClientPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("client not found: %s", id)
	}
	return c, err
}

func (s *PostgresStore) ListClients(ctx context.Context, filter ClientFilter) ([]model.Client, error) {
	query := `SELECT id, parent_id, name, company, email, phone, sector, size,
	 city, region, state, existing_products, annual_revenue_band,
	 start_date, last_project_date, account_manager, notes, created_at
	 FROM clients WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Sector != "" {
		query += fmt.Sprintf(` AND sector = $%d`, argIdx)
		args = append(args, string(filter.Sector))
		argIdx++
	}
	if filter.State != "" {
		query += fmt.Sprintf(` AND state = $%d`, argIdx)
		args = append(args, filter.State)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list clients")
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClientPG(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, eris.Wrap(rows.Err(), "postgres: list clients iterate")
}

func (s *PostgresStore) UpdateClient(ctx context.Context, client model.Client) error {
	productsJSON, err := json.Marshal(model.NormalizeSet(client.ExistingProducts))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal products")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE clients SET parent_id = $1, name = $2, company = $3, email = $4, phone = $5,
		 sector = $6, size = $7, city = $8, region = $9, state = $10,
		 existing_products = $11, annual_revenue_band = $12,
		 start_date = $13, last_project_date = $14, account_manager = $15, notes = $16
		 WHERE id = $17`,
		client.ParentID, client.Name, client.Company, client.Email, client.Phone,
		string(client.Sector), string(client.Size),
		client.City, client.Region, client.State,
		productsJSON, client.AnnualRevenueBand,
		client.StartDate, client.LastProjectDate, client.AccountManager, client.Notes,
		client.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update client %s", client.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("client not found: %s", client.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteClient(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete client %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("client not found: %s", id)
	}
	return nil
}

// Tickets

func (s *PostgresStore) CreateTicket(ctx context.Context, ticket model.Ticket) (*model.Ticket, error) {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tickets (id, client_id, issue_type, severity, subject, description,
		 created_at, resolved_at, status, resolution_notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ticket.ID, ticket.ClientID, string(ticket.IssueType), string(ticket.Severity),
		ticket.Subject, ticket.Description, ticket.CreatedAt,
		ticket.ResolvedAt, string(ticket.Status), ticket.ResolutionNotes,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert ticket")
	}
	return &ticket, nil
}

func (s *PostgresStore) ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	query := `SELECT id, client_id, issue_type, severity, subject, description,
	 created_at, resolved_at, status, resolution_notes
	 FROM tickets WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ClientID != "" {
		query += fmt.Sprintf(` AND client_id = $%d`, argIdx)
		args = append(args, filter.ClientID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.IssueType != "" {
		query += fmt.Sprintf(` AND issue_type = $%d`, argIdx)
		args = append(args, string(filter.IssueType))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tickets")
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.ClientID, &t.IssueType, &t.Severity,
			&t.Subject, &t.Description, &t.CreatedAt,
			&t.ResolvedAt, &t.Status, &t.ResolutionNotes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ticket")
		}
		tickets = append(tickets, t)
	}
	return tickets, eris.Wrap(rows.Err(), "postgres: list tickets iterate")
}

func (s *PostgresStore) UpdateTicket(ctx context.Context, ticket model.Ticket) error {
	if err := ticket.Validate(); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tickets SET issue_type = $1, severity = $2, subject = $3, description = $4,
		 resolved_at = $5, status = $6, resolution_notes = $7 WHERE id = $8`,
		string(ticket.IssueType), string(ticket.Severity), ticket.Subject, ticket.Description,
		ticket.ResolvedAt, string(ticket.Status), ticket.ResolutionNotes,
		ticket.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update ticket %s", ticket.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ticket not found: %s", ticket.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteTicket(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete ticket %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ticket not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) TicketStats(ctx context.Context) (*TicketStats, error) {
	stats := &TicketStats{
		ByType:   make(map[string]int),
		ByStatus: make(map[string]int),
	}

	rows, err := s.pool.Query(ctx,
		`SELECT issue_type, COUNT(*) FROM tickets GROUP BY issue_type`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: ticket stats by type")
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan type count")
		}
		stats.ByType[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: ticket stats by type iterate")
	}

	rows, err = s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: ticket stats by status")
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		stats.ByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: ticket stats by status iterate")
	}

	rows, err = s.pool.Query(ctx,
		`SELECT t.client_id, c.company, COUNT(*) AS n
		 FROM tickets t JOIN clients c ON c.id = t.client_id
		 GROUP BY t.client_id, c.company
		 ORDER BY n DESC, c.company ASC
		 LIMIT 5`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: ticket stats top clients")
	}
	defer rows.Close()
	for rows.Next() {
		var tc ClientTicketCount
		if err := rows.Scan(&tc.ClientID, &tc.Company, &tc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan top client")
		}
		stats.TopClients = append(stats.TopClients, tc)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: ticket stats top clients iterate")
}

// Automation packs

func (s *PostgresStore) CreatePack(ctx context.Context, pack model.AutomationPack) (*model.AutomationPack, error) {
	if pack.ID == "" {
		pack.ID = uuid.New().String()
	}
	if pack.CreatedAt.IsZero() {
		pack.CreatedAt = time.Now().UTC()
	}
	sectorsJSON, err := json.Marshal(pack.TargetSectors)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal target sectors")
	}
	reqJSON, err := json.Marshal(model.NormalizeSet(pack.RequiredExistingProducts))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal required products")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO automation_packs (id, name, code, description, target_sectors,
		 required_existing_products, price_band, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pack.ID, pack.Name, pack.Code, pack.Description,
		sectorsJSON, reqJSON, pack.PriceBand, pack.IsActive, pack.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert pack")
	}
	return &pack, nil
}

func (s *PostgresStore) ListPacks(ctx context.Context, activeOnly bool) ([]model.AutomationPack, error) {
	query := `SELECT id, name, code, description, target_sectors,
	 required_existing_products, price_band, is_active, created_at
	 FROM automation_packs`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list packs")
	}
	defer rows.Close()

	var packs []model.AutomationPack
	for rows.Next() {
		var p model.AutomationPack
		var sectorsJSON, reqJSON []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.Description,
			&sectorsJSON, &reqJSON, &p.PriceBand, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pack")
		}
		if err := json.Unmarshal(sectorsJSON, &p.TargetSectors); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal target sectors")
		}
		if err := json.Unmarshal(reqJSON, &p.RequiredExistingProducts); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal required products")
		}
		packs = append(packs, p)
	}
	return packs, eris.Wrap(rows.Err(), "postgres: list packs iterate")
}

func (s *PostgresStore) UpdatePack(ctx context.Context, pack model.AutomationPack) error {
	sectorsJSON, err := json.Marshal(pack.TargetSectors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal target sectors")
	}
	reqJSON, err := json.Marshal(model.NormalizeSet(pack.RequiredExistingProducts))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal required products")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE automation_packs SET name = $1, code = $2, description = $3,
		 target_sectors = $4, required_existing_products = $5, price_band = $6, is_active = $7
		 WHERE id = $8`,
		pack.Name, pack.Code, pack.Description,
		sectorsJSON, reqJSON, pack.PriceBand, pack.IsActive,
		pack.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update pack %s", pack.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("pack not found: %s", pack.ID)
	}
	return nil
}

func (s *PostgresStore) DeletePack(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM automation_packs WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete pack %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("pack not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) InstallPack(ctx context.Context, install model.ClientAutomation) error {
	if install.ID == "" {
		install.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO client_automations (id, client_id, pack_id, installed_date, notes)
		 VALUES ($1, $2, $3, $4, $5)`,
		install.ID, install.ClientID, install.PackID,
		install.InstalledDate, install.Notes,
	)
	return eris.Wrap(err, "postgres: install pack")
}

func (s *PostgresStore) InstalledPackCodes(ctx context.Context, clientID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.code FROM client_automations ca
		 JOIN automation_packs p ON p.id = ca.pack_id
		 WHERE ca.client_id = $1
		 ORDER BY p.code`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: installed packs for %s", clientID)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pack code")
		}
		codes = append(codes, code)
	}
	return codes, eris.Wrap(rows.Err(), "postgres: installed packs iterate")
}

func (s *PostgresStore) InstallationCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.code, COUNT(ca.id) FROM automation_packs p
		 LEFT JOIN client_automations ca ON ca.pack_id = p.id
		 GROUP BY p.code`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: installation counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan installation count")
		}
		counts[code] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: installation counts iterate")
}

// Weight configuration

func (s *PostgresStore) WeightEntries(ctx context.Context) ([]model.WeightEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, value, category, label FROM scoring_configs ORDER BY key`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: weight entries")
	}
	defer rows.Close()

	var entries []model.WeightEntry
	for rows.Next() {
		var e model.WeightEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Category, &e.Label); err != nil {
			return nil, eris.Wrap(err, "postgres: scan weight entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: weight entries iterate")
}

func (s *PostgresStore) UpsertWeightEntry(ctx context.Context, entry model.WeightEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scoring_configs (key, value, category, label) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET value = $2, category = $3, label = $4`,
		entry.Key, entry.Value, entry.Category, entry.Label,
	)
	return eris.Wrapf(err, "postgres: upsert weight %s", entry.Key)
}

// Score history

func (s *PostgresStore) SaveScoreHistory(ctx context.Context, records []model.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin score history tx")
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.RecordedAt.IsZero() {
			r.RecordedAt = time.Now().UTC()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO score_histories (id, entity_id, entity_type, score, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			r.ID, r.EntityID, r.EntityType, r.Score, r.RecordedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert score history %s", r.EntityID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit score history")
}

func (s *PostgresStore) ScoreHistory(ctx context.Context, entityType, entityID string, limit int) ([]model.ScoreRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, entity_id, entity_type, score, recorded_at FROM score_histories
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY recorded_at DESC LIMIT $3`,
		entityType, entityID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: score history for %s", entityID)
	}
	defer rows.Close()

	var records []model.ScoreRecord
	for rows.Next() {
		var r model.ScoreRecord
		if err := rows.Scan(&r.ID, &r.EntityID, &r.EntityType, &r.Score, &r.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: score history iterate")
}

// scanners

func scanLeadPG(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var modulesJSON []byte

	err := row.Scan(&l.ID, &l.Name, &l.Company, &l.Email, &l.Phone,
		&l.Sector, &l.Size, &l.Source,
		&l.City, &l.Region, &l.State, &modulesJSON,
		&l.LastContactDate, &l.Status, &l.Notes, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan lead")
	}

	if err := json.Unmarshal(modulesJSON, &l.InterestedModules); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal modules")
	}
	return &l, nil
}

func scanClientPG(row pgx.Row) (*model.Client, error) {
	var c model.Client
	var productsJSON []byte

	err := row.Scan(&c.ID, &c.ParentID, &c.Name, &c.Company, &c.Email, &c.Phone,
		&c.Sector, &c.Size,
		&c.City, &c.Region, &c.State,
		&productsJSON, &c.AnnualRevenueBand,
		&c.StartDate, &c.LastProjectDate, &c.AccountManager, &c.Notes, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan client")
	}

	if err := json.Unmarshal(productsJSON, &c.ExistingProducts); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal products")
	}
	return &c, nil
}
