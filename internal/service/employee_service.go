package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// EmployeeService manages the operator roster and divisions.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	divisions  repository.DivisionRepository
	bcryptCost int
}

// RosterDependencies encapsulates repositories required for roster management.
type RosterDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	DivisionRepo repository.DivisionRepository
}

// EmployeeListFilters define roster listing parameters.
type EmployeeListFilters struct {
	DivisionID *string
	Role       *domain.EmployeeRole
	Active     *bool
	Limit      int
	Offset     int
}

// NewEmployeeService constructs the service.
func NewEmployeeService(cfg config.Config, deps RosterDependencies) *EmployeeService {
	return &EmployeeService{
		employees:  deps.EmployeeRepo,
		divisions:  deps.DivisionRepo,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.Employee) error {
	if actor == nil || actor.Role != domain.EmployeeRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateEmployee adds a new operator account. UIC employees must belong
// to an active division so escalation routing can reach them.
func (s *EmployeeService) CreateEmployee(ctx context.Context, actor *domain.Employee, name, email, password string, role domain.EmployeeRole, divisionID *string) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if existing, err := s.employees.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("employee email already exists", map[string]any{"email": email})
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	if role == domain.EmployeeRoleUIC && (divisionID == nil || *divisionID == "") {
		return nil, apperrors.NewValidationError("uic employees require a division", nil)
	}
	if divisionID != nil && *divisionID != "" {
		division, err := s.divisions.GetByID(ctx, *divisionID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !division.IsActive {
			return nil, apperrors.NewConflict("division inactive", map[string]any{"division_id": *divisionID})
		}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	employee := &domain.Employee{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DivisionID:   divisionID,
		Active:       true,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

// UpdateEmployee modifies an operator account. Deactivating an employee
// takes them out of the escalation rotation without touching tickets
// they already hold.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, actor *domain.Employee, employeeID, name, email string, role domain.EmployeeRole, divisionID *string, active bool) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if email != "" && email != employee.Email {
		if existing, err := s.employees.GetByEmail(ctx, email); err == nil && existing != nil && existing.ID != employee.ID {
			return nil, apperrors.NewConflict("employee email already exists", map[string]any{"email": email})
		} else if err != nil && err != pgx.ErrNoRows {
			return nil, apperrors.MapError(err)
		}
	}
	if role == domain.EmployeeRoleUIC && (divisionID == nil || *divisionID == "") {
		return nil, apperrors.NewValidationError("uic employees require a division", nil)
	}
	if divisionID != nil && *divisionID != "" {
		division, err := s.divisions.GetByID(ctx, *divisionID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !division.IsActive {
			return nil, apperrors.NewConflict("division inactive", map[string]any{"division_id": *divisionID})
		}
	}

	if name != "" {
		employee.Name = name
	}
	if email != "" {
		employee.Email = email
	}
	employee.Role = role
	employee.DivisionID = divisionID
	employee.Active = active

	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

// ListEmployees lists the roster with filters.
func (s *EmployeeService) ListEmployees(ctx context.Context, actor *domain.Employee, filters EmployeeListFilters) ([]domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.EmployeeFilter{
		DivisionID: filters.DivisionID,
		Role:       filters.Role,
		Active:     filters.Active,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}
	employees, err := s.employees.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return employees, nil
}

// GetEmployeeByID fetches one operator account.
func (s *EmployeeService) GetEmployeeByID(ctx context.Context, actor *domain.Employee, id string) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

// ListDivisions lists divisions; any authenticated employee may read them.
func (s *EmployeeService) ListDivisions(ctx context.Context, includeInactive bool) ([]domain.Division, error) {
	divisions, err := s.divisions.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return divisions, nil
}
