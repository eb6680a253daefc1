// Package store persists entities, weight configuration, and score
// history behind a driver-agnostic interface. The scoring engine never
// touches this package; it receives already-loaded collections as
// plain data.
package store

import (
	"context"

	"github.com/salesradar/salesradar/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status model.LeadStatus `json:"status,omitempty"`
	Sector model.Sector     `json:"sector,omitempty"`
	State  string           `json:"state,omitempty"`
	Limit  int              `json:"limit,omitempty"`
}

// ClientFilter specifies criteria for listing clients.
type ClientFilter struct {
	Sector model.Sector `json:"sector,omitempty"`
	State  string       `json:"state,omitempty"`
	Limit  int          `json:"limit,omitempty"`
}

// TicketFilter specifies criteria for listing tickets.
type TicketFilter struct {
	ClientID  string             `json:"client_id,omitempty"`
	Status    model.TicketStatus `json:"status,omitempty"`
	IssueType model.IssueType    `json:"issue_type,omitempty"`
	Limit     int                `json:"limit,omitempty"`
}

// ClientTicketCount is one row of the top-clients ticket leaderboard.
type ClientTicketCount struct {
	ClientID string `json:"client_id"`
	Company  string `json:"company"`
	Count    int    `json:"ticket_count"`
}

// TicketStats summarizes the ticket table for the support dashboard.
type TicketStats struct {
	ByType     map[string]int      `json:"by_type"`
	ByStatus   map[string]int      `json:"by_status"`
	TopClients []ClientTicketCount `json:"top_clients"`
}

// Store defines the persistence interface. Both drivers (postgres,
// sqlite) implement it; the driver is chosen by configuration.
type Store interface {
	// Leads
	CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLead(ctx context.Context, lead model.Lead) error
	DeleteLead(ctx context.Context, id string) error

	// Clients
	CreateClient(ctx context.Context, client model.Client) (*model.Client, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	ListClients(ctx context.Context, filter ClientFilter) ([]model.Client, error)
	UpdateClient(ctx context.Context, client model.Client) error
	DeleteClient(ctx context.Context, id string) error

	// Tickets
	CreateTicket(ctx context.Context, ticket model.Ticket) (*model.Ticket, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error)
	UpdateTicket(ctx context.Context, ticket model.Ticket) error
	DeleteTicket(ctx context.Context, id string) error
	TicketStats(ctx context.Context) (*TicketStats, error)

	// Automation packs
	CreatePack(ctx context.Context, pack model.AutomationPack) (*model.AutomationPack, error)
	ListPacks(ctx context.Context, activeOnly bool) ([]model.AutomationPack, error)
	UpdatePack(ctx context.Context, pack model.AutomationPack) error
	DeletePack(ctx context.Context, id string) error
	InstallPack(ctx context.Context, install model.ClientAutomation) error
	InstalledPackCodes(ctx context.Context, clientID string) ([]string, error)
	InstallationCounts(ctx context.Context) (map[string]int, error)

	// Weight configuration
	WeightEntries(ctx context.Context) ([]model.WeightEntry, error)
	UpsertWeightEntry(ctx context.Context, entry model.WeightEntry) error

	// Score history
	SaveScoreHistory(ctx context.Context, records []model.ScoreRecord) error
	ScoreHistory(ctx context.Context, entityType, entityID string, limit int) ([]model.ScoreRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
