package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// RosterHandler manages employee roster and division endpoints.
type RosterHandler struct {
	service *service.EmployeeService
}

// NewRosterHandler constructs handler.
func NewRosterHandler(employeeService *service.EmployeeService) *RosterHandler {
	return &RosterHandler{service: employeeService}
}

// CreateEmployee POST /admin/employees.
func (h *RosterHandler) CreateEmployee(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return apperrors.NewValidationError("name, email, password, role required", nil)
	}

	employee, err := h.service.CreateEmployee(c.Context(), principal.Employee, req.Name, req.Email, req.Password, req.Role, req.DivisionID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": employeeResponse(employee)})
}

// UpdateEmployee PUT /admin/employees/:id.
func (h *RosterHandler) UpdateEmployee(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.UpdateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Role == "" {
		return apperrors.NewValidationError("role required", nil)
	}

	employee, err := h.service.UpdateEmployee(c.Context(), principal.Employee, c.Params("id"), req.Name, req.Email, req.Role, req.DivisionID, req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// ListEmployees GET /admin/employees.
func (h *RosterHandler) ListEmployees(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	filters := service.EmployeeListFilters{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: (parseInt(c.Query("page"), 1) - 1) * parseInt(c.Query("page_size"), 50),
	}
	if divisionID := c.Query("division_id"); divisionID != "" {
		filters.DivisionID = &divisionID
	}
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.EmployeeRole(roleStr)
		filters.Role = &role
	}
	if activeStr := c.Query("active"); activeStr != "" {
		active := activeStr == "true"
		filters.Active = &active
	}

	employees, err := h.service.ListEmployees(c.Context(), principal.Employee, filters)
	if err != nil {
		return err
	}
	items := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		items = append(items, employeeResponse(&employees[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetEmployee GET /admin/employees/:id.
func (h *RosterHandler) GetEmployee(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	employee, err := h.service.GetEmployeeByID(c.Context(), principal.Employee, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// ListDivisions GET /ops/divisions.
func (h *RosterHandler) ListDivisions(c *fiber.Ctx) error {
	divisions, err := h.service.ListDivisions(c.Context(), c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	items := make([]dto.DivisionResponse, 0, len(divisions))
	for _, division := range divisions {
		items = append(items, dto.DivisionResponse{
			ID:          division.ID,
			Code:        division.Code,
			Name:        division.Name,
			Description: division.Description,
			IsActive:    division.IsActive,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func employeeResponse(employee *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:             employee.ID,
		Name:           employee.Name,
		Email:          employee.Email,
		Role:           employee.Role,
		DivisionID:     employee.DivisionID,
		Active:         employee.Active,
		LastAssignedAt: employee.LastAssignedAt,
		CreatedAt:      employee.CreatedAt,
	}
}
