package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateEmployeeRequest payload.
type CreateEmployeeRequest struct {
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Password   string              `json:"password"`
	Role       domain.EmployeeRole `json:"role"`
	DivisionID *string             `json:"division_id"`
}

// UpdateEmployeeRequest payload.
type UpdateEmployeeRequest struct {
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Role       domain.EmployeeRole `json:"role"`
	DivisionID *string             `json:"division_id"`
	Active     bool                `json:"active"`
}

// EmployeeResponse is one roster entry. Password hashes never leave the
// service layer.
type EmployeeResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Email          string              `json:"email"`
	Role           domain.EmployeeRole `json:"role"`
	DivisionID     *string             `json:"division_id"`
	Active         bool                `json:"active"`
	LastAssignedAt *time.Time          `json:"last_assigned_at"`
	CreatedAt      time.Time           `json:"created_at"`
}

// DivisionResponse is one unit-in-charge.
type DivisionResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// ReferenceResponse is one lookup table row.
type ReferenceResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
