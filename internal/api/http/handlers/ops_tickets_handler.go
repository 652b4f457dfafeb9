package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// OpsTicketsHandler manages employee-facing ticket endpoints.
type OpsTicketsHandler struct {
	service *service.LifecycleService
}

// NewOpsTicketsHandler constructs handler.
func NewOpsTicketsHandler(lifecycle *service.LifecycleService) *OpsTicketsHandler {
	return &OpsTicketsHandler{service: lifecycle}
}

// CreateTicket POST /ops/tickets opens a ticket on a customer's behalf,
// for example from a phone call.
func (h *OpsTicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PriorityID == "" || req.IssueChannelID == "" || req.IntakeSourceID == "" {
		return apperrors.NewValidationError("priority_id, issue_channel_id, intake_source_id required", nil)
	}

	input := service.TicketCreateInput{
		PriorityID:       req.PriorityID,
		IssueChannelID:   req.IssueChannelID,
		IntakeSourceID:   req.IntakeSourceID,
		ComplaintID:      req.ComplaintID,
		CustomerID:       req.CustomerID,
		RelatedAccountID: req.RelatedAccountID,
		RelatedCardID:    req.RelatedCardID,
		TerminalID:       req.TerminalID,
		Description:      req.Description,
	}
	ticket, err := h.service.CreateTicket(c.Context(), input, principal.Actor())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /ops/tickets.
func (h *OpsTicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	if employeeID := c.Query("responsible_employee_id"); employeeID != "" {
		filter.ResponsibleEmployeeID = &employeeID
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}
	filter.IncludeDeleted = c.QueryBool("include_deleted", false)

	tickets, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /ops/tickets/:id.
func (h *OpsTicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Classify POST /ops/tickets/:id/classify. A missing policy is not an
// error for the caller: the ticket simply stays unclassified until an
// administrator adds a matching policy.
func (h *OpsTicketsHandler) Classify(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.ClassifyTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ComplaintID == "" || req.ChannelID == "" {
		return apperrors.NewValidationError("complaint_id, channel_id required", nil)
	}

	ticket, err := h.service.Classify(c.Context(), c.Params("id"), req.ComplaintID, req.ChannelID, req.Service, principal.Actor())
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodePolicyNotFound {
			return c.JSON(fiber.Map{"data": fiber.Map{
				"classified": false,
				"reason":     "no matching policy, classification deferred",
			}})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Transition POST /ops/tickets/:id/transition.
func (h *OpsTicketsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Track == "" || req.Target == "" {
		return apperrors.NewValidationError("track, target required", nil)
	}

	ticket, err := h.service.Transition(c.Context(), c.Params("id"), req.Track, req.Target, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// SoftDelete DELETE /ops/tickets/:id.
func (h *OpsTicketsHandler) SoftDelete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	ticket, err := h.service.SoftDelete(c.Context(), c.Params("id"), principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Restore POST /ops/tickets/:id/restore.
func (h *OpsTicketsHandler) Restore(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	ticket, err := h.service.Restore(c.Context(), c.Params("id"), principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// GetStatusHistory GET /ops/tickets/:id/history.
func (h *OpsTicketsHandler) GetStatusHistory(c *fiber.Ctx) error {
	records, err := h.service.GetStatusHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statusChangeResponses(records)})
}

// ListActivities GET /ops/tickets/:id/activities.
func (h *OpsTicketsHandler) ListActivities(c *fiber.Ctx) error {
	entries, err := h.service.ListActivities(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponses(entries)})
}

// AddNote POST /ops/tickets/:id/notes.
func (h *OpsTicketsHandler) AddNote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.AddDivisionNote(c.Context(), c.Params("id"), principal.Employee, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NoteResponse{
		ID:         note.ID,
		TicketID:   note.TicketID,
		DivisionID: note.DivisionID,
		AuthorID:   note.AuthorID,
		Message:    note.Message,
		CreatedAt:  note.CreatedAt,
	}})
}

// ListNotes GET /ops/tickets/:id/notes.
func (h *OpsTicketsHandler) ListNotes(c *fiber.Ctx) error {
	notes, err := h.service.ListDivisionNotes(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": noteResponses(notes)})
}

// ListSlaBreaches GET /ops/tickets/sla-breaches.
func (h *OpsTicketsHandler) ListSlaBreaches(c *fiber.Ctx) error {
	tickets, err := h.service.GetSlaBreaches(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
