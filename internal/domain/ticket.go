package domain

import "time"

// Ticket is the aggregate for customer complaints. The two status fields
// are independent tracks; only the lifecycle service mutates them.
type Ticket struct {
	ID                    string
	TicketNumber          string
	CustomerStatus        CustomerStatus
	EmployeeStatus        EmployeeStatus
	PriorityID            string
	IssueChannelID        string
	IntakeSourceID        string
	ComplaintID           *string
	PolicyID              *int64
	CustomerID            *string
	RelatedAccountID      *string
	RelatedCardID         *string
	TerminalID            *string
	ResponsibleEmployeeID *string
	Description           string
	CreatedTime           time.Time
	CommittedDueAt        *time.Time
	ClosedTime            *time.Time
	DeletedAt             *time.Time
	DeletedBy             *string
}

// Deleted reports whether the soft-delete pair is set.
func (t *Ticket) Deleted() bool {
	return t.DeletedAt != nil
}

// Classified reports whether a policy has been resolved for the ticket.
func (t *Ticket) Classified() bool {
	return t.PolicyID != nil
}

// SlaBreached derives the breach condition: the committed due time has
// passed while the employee track is still non-terminal. Not persisted.
func (t *Ticket) SlaBreached(now time.Time) bool {
	if t.CommittedDueAt == nil || t.EmployeeStatus.Terminal() {
		return false
	}
	return now.After(*t.CommittedDueAt)
}

// DivisionNote is an append-only remark left by a division while handling
// a ticket.
type DivisionNote struct {
	ID         string
	TicketID   string
	DivisionID string
	AuthorID   string
	Message    string
	CreatedAt  time.Time
}
