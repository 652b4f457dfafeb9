package domain

import "time"

// Division is a unit-in-charge (UIC) that owns escalated complaints.
type Division struct {
	ID          string
	Code        string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmployeeRole enumerates internal operator roles.
type EmployeeRole string

const (
	EmployeeRoleAgent EmployeeRole = "AGENT"
	EmployeeRoleUIC   EmployeeRole = "UIC"
	EmployeeRoleAdmin EmployeeRole = "ADMIN"
)

// Employee models a call-center agent, UIC specialist or administrator.
// LastAssignedAt is the persisted pointer behind least-recently-assigned
// escalation routing; it survives restarts and concurrent instances.
type Employee struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           EmployeeRole
	DivisionID     *string
	Active         bool
	LastAssignedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
