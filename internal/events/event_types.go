package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates transition events emitted by the lifecycle engine.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketUpdated    EventType = "ticket_updated"
	EventTicketEscalated  EventType = "ticket_escalated"
	EventTicketClosed     EventType = "ticket_closed"
	EventTicketSlaWarning EventType = "ticket_sla_warning"
)

// Event is a transition event handed off to subscribers after the
// triggering transaction committed and its lock was released.
type Event struct {
	ID           string       `json:"id"`
	Type         EventType    `json:"type"`
	TicketID     string       `json:"ticket_id"`
	TicketNumber string       `json:"ticket_number"`
	Actor        domain.Actor `json:"actor"`
	Timestamp    time.Time    `json:"timestamp"`
	Payload      interface{}  `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ChannelID  string  `json:"channel_id"`
	SourceID   string  `json:"source_id"`
	CustomerID *string `json:"customer_id,omitempty"`
}

// TransitionPayload describes a status change on one track, plus the
// recipients interested in it.
type TransitionPayload struct {
	Track           domain.Track `json:"track"`
	FromStatus      string       `json:"from_status"`
	ToStatus        string       `json:"to_status"`
	CustomerID      *string      `json:"customer_id,omitempty"`
	PriorEmployeeID *string      `json:"prior_employee_id,omitempty"`
	NewEmployeeID   *string      `json:"new_employee_id,omitempty"`
}

// ClassifiedPayload describes a completed classification.
type ClassifiedPayload struct {
	PolicyID       int64     `json:"policy_id"`
	UicID          string    `json:"uic_id"`
	EmployeeID     string    `json:"employee_id"`
	CommittedDueAt time.Time `json:"committed_due_at"`
	CustomerID     *string   `json:"customer_id,omitempty"`
}

// SlaWarningPayload flags a derived SLA breach.
type SlaWarningPayload struct {
	CommittedDueAt time.Time `json:"committed_due_at"`
	EmployeeStatus string    `json:"employee_status"`
	CustomerID     *string   `json:"customer_id,omitempty"`
	EmployeeID     *string   `json:"employee_id,omitempty"`
}
