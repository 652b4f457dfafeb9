package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	PriorityID       string  `json:"priority_id"`
	IssueChannelID   string  `json:"issue_channel_id"`
	IntakeSourceID   string  `json:"intake_source_id"`
	ComplaintID      *string `json:"complaint_id"`
	CustomerID       *string `json:"customer_id"`
	RelatedAccountID *string `json:"related_account_id"`
	RelatedCardID    *string `json:"related_card_id"`
	TerminalID       *string `json:"terminal_id"`
	Description      string  `json:"description"`
}

// ClassifyTicketRequest payload.
type ClassifyTicketRequest struct {
	ComplaintID string `json:"complaint_id"`
	ChannelID   string `json:"channel_id"`
	Service     string `json:"service"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Track  domain.Track `json:"track"`
	Target string       `json:"target"`
}

// AddNoteRequest payload.
type AddNoteRequest struct {
	Message string `json:"message"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                    string     `json:"id"`
	TicketNumber          string     `json:"ticket_number"`
	CustomerStatus        string     `json:"customer_status"`
	EmployeeStatus        string     `json:"employee_status"`
	PriorityID            string     `json:"priority_id"`
	IssueChannelID        string     `json:"issue_channel_id"`
	IntakeSourceID        string     `json:"intake_source_id"`
	ComplaintID           *string    `json:"complaint_id"`
	PolicyID              *int64     `json:"policy_id"`
	CustomerID            *string    `json:"customer_id"`
	ResponsibleEmployeeID *string    `json:"responsible_employee_id"`
	CreatedTime           time.Time  `json:"created_time"`
	CommittedDueAt        *time.Time `json:"committed_due_at"`
	ClosedTime            *time.Time `json:"closed_time"`
	Deleted               bool       `json:"deleted"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	RelatedAccountID *string `json:"related_account_id"`
	RelatedCardID    *string `json:"related_card_id"`
	TerminalID       *string `json:"terminal_id"`
	Description      string  `json:"description"`
	SlaBreached      bool    `json:"sla_breached"`
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID           string    `json:"id"`
	SenderKind   string    `json:"sender_kind"`
	SenderID     *string   `json:"sender_id,omitempty"`
	ActivityType string    `json:"activity_type"`
	Content      string    `json:"content"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// StatusChangeResponse is one reconstructed history item.
type StatusChangeResponse struct {
	Track      string    `json:"track"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorKind  string    `json:"actor_kind"`
	ActorID    *string   `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NoteResponse is one division note.
type NoteResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	DivisionID string    `json:"division_id"`
	AuthorID   string    `json:"author_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
