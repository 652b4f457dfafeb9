package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// TicketsHandler manages customer-facing ticket endpoints.
type TicketsHandler struct {
	service *service.LifecycleService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(lifecycle *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{service: lifecycle}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PriorityID == "" || req.IssueChannelID == "" || req.IntakeSourceID == "" {
		return apperrors.NewValidationError("priority_id, issue_channel_id, intake_source_id required", nil)
	}
	if strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("description required", nil)
	}

	input := service.TicketCreateInput{
		PriorityID:       req.PriorityID,
		IssueChannelID:   req.IssueChannelID,
		IntakeSourceID:   req.IntakeSourceID,
		ComplaintID:      req.ComplaintID,
		CustomerID:       &principal.Customer.ID,
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

// ListTickets GET /tickets returns the caller's own tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	filter := parseTicketQuery(c)
	filter.CustomerID = &principal.Customer.ID
	filter.IncludeDeleted = false

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

// GetTicket GET /tickets/:id restricted to the owning customer.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if ticket.CustomerID == nil || *ticket.CustomerID != principal.Customer.ID {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": c.Params("id")})
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// GetStatusHistory GET /tickets/:id/history for the owning customer.
func (h *TicketsHandler) GetStatusHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if ticket.CustomerID == nil || *ticket.CustomerID != principal.Customer.ID {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": c.Params("id")})
	}
	records, err := h.service.GetStatusHistory(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statusChangeResponses(records)})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("customer_status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.CustomerStatuses = append(filter.CustomerStatuses, domain.CustomerStatus(strings.TrimSpace(part)))
		}
	}
	if statusStr := c.Query("employee_status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.EmployeeStatuses = append(filter.EmployeeStatuses, domain.EmployeeStatus(strings.TrimSpace(part)))
		}
	}
	if complaint := c.Query("complaint_id"); complaint != "" {
		filter.ComplaintID = &complaint
	}
	if channel := c.Query("channel_id"); channel != "" {
		filter.ChannelID = &channel
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                    ticket.ID,
		TicketNumber:          ticket.TicketNumber,
		CustomerStatus:        string(ticket.CustomerStatus),
		EmployeeStatus:        string(ticket.EmployeeStatus),
		PriorityID:            ticket.PriorityID,
		IssueChannelID:        ticket.IssueChannelID,
		IntakeSourceID:        ticket.IntakeSourceID,
		ComplaintID:           ticket.ComplaintID,
		PolicyID:              ticket.PolicyID,
		CustomerID:            ticket.CustomerID,
		ResponsibleEmployeeID: ticket.ResponsibleEmployeeID,
		CreatedTime:           ticket.CreatedTime,
		CommittedDueAt:        ticket.CommittedDueAt,
		ClosedTime:            ticket.ClosedTime,
		Deleted:               ticket.Deleted(),
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		TicketSummary:    ticketSummary(ticket),
		RelatedAccountID: ticket.RelatedAccountID,
		RelatedCardID:    ticket.RelatedCardID,
		TerminalID:       ticket.TerminalID,
		Description:      ticket.Description,
		SlaBreached:      ticket.SlaBreached(time.Now()),
	}
}

func activityResponses(entries []domain.ActivityEntry) []dto.ActivityResponse {
	resp := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.ActivityResponse{
			ID:           entry.ID,
			SenderKind:   string(entry.Actor.Kind),
			SenderID:     entry.Actor.ID,
			ActivityType: string(entry.Type),
			Content:      entry.Content,
			OccurredAt:   entry.OccurredAt,
		})
	}
	return resp
}

func statusChangeResponses(records []domain.StatusChangeRecord) []dto.StatusChangeResponse {
	resp := make([]dto.StatusChangeResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, dto.StatusChangeResponse{
			Track:      string(record.Detail.Track),
			From:       record.Detail.From,
			To:         record.Detail.To,
			ActorKind:  string(record.Actor.Kind),
			ActorID:    record.Actor.ID,
			OccurredAt: record.OccurredAt,
		})
	}
	return resp
}

func noteResponses(notes []domain.DivisionNote) []dto.NoteResponse {
	resp := make([]dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		resp = append(resp, dto.NoteResponse{
			ID:         note.ID,
			TicketID:   note.TicketID,
			DivisionID: note.DivisionID,
			AuthorID:   note.AuthorID,
			Message:    note.Message,
			CreatedAt:  note.CreatedAt,
		})
	}
	return resp
}
