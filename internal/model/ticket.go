package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// IssueType categorizes a support ticket. Recurring issue types drive
// automation pack recommendations.
type IssueType string

const (
	IssueGST         IssueType = "gst"
	IssueInventory   IssueType = "inventory"
	IssueReport      IssueType = "report"
	IssuePerformance IssueType = "performance"
	IssueTraining    IssueType = "training"
	IssueUnknown     IssueType = "unknown"
)

// ParseIssueType maps free text onto an IssueType, falling back to
// IssueUnknown.
func ParseIssueType(s string) IssueType {
	switch v := IssueType(normalize(s)); v {
	case IssueGST, IssueInventory, IssueReport, IssuePerformance, IssueTraining:
		return v
	default:
		return IssueUnknown
	}
}

// Severity is a ticket's urgency level.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = "unknown"
)

// ParseSeverity maps free text onto a Severity, falling back to
// SeverityUnknown.
func ParseSeverity(s string) Severity {
	switch v := Severity(normalize(s)); v {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return v
	default:
		return SeverityUnknown
	}
}

// TicketStatus is a ticket's resolution state.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// ParseTicketStatus maps free text onto a TicketStatus, defaulting to
// TicketOpen.
func ParseTicketStatus(s string) TicketStatus {
	switch v := TicketStatus(normalize(s)); v {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return v
	default:
		return TicketOpen
	}
}

// Ticket is a support issue raised by a client.
type Ticket struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	IssueType   IssueType `json:"issue_type"`
	Severity    Severity  `json:"severity"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	Status          TicketStatus `json:"status"`
	ResolutionNotes string       `json:"resolution_notes,omitempty"`
}

// Validate rejects tickets that are inconsistent at the data-entry
// boundary. The scoring engine itself tolerates bad tickets
// defensively; this is for writers, not scorers.
func (t Ticket) Validate() error {
	if t.ClientID == "" {
		return eris.New("ticket: client_id is required")
	}
	if t.Subject == "" {
		return eris.New("ticket: subject is required")
	}
	if t.ResolvedAt != nil && t.ResolvedAt.Before(t.CreatedAt) {
		return eris.Errorf("ticket: resolved_at %s precedes created_at %s",
			t.ResolvedAt.Format(time.RFC3339), t.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
