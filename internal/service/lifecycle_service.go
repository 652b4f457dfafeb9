package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// errNoChange aborts a Mutate without writing anything; callers translate
// it into an idempotent success.
var errNoChange = errors.New("no change")

// LifecycleService is the sole authority permitted to mutate a ticket's
// status fields. Every mutation is validated against current state,
// committed together with its activity entry under the per-ticket row
// lock, and only then fanned out as a transition event.
type LifecycleService struct {
	tickets    repository.TicketRepository
	activities repository.ActivityRepository
	divisions  repository.DivisionRepository
	refdata    repository.RefDataRepository
	notes      repository.NoteRepository
	policies   PolicyResolver
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// LifecycleDependencies bundles repositories for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	DivisionRepo repository.DivisionRepository
	RefDataRepo  repository.RefDataRepository
	NoteRepo     repository.NoteRepository
	Policies     PolicyResolver
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		activities: deps.ActivityRepo,
		divisions:  deps.DivisionRepo,
		refdata:    deps.RefDataRepo,
		notes:      deps.NoteRepo,
		policies:   deps.Policies,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// TicketCreateInput describes intake parameters. Customer and related
// entity references are optional; anonymous channel intake is legal.
type TicketCreateInput struct {
	PriorityID       string
	IssueChannelID   string
	IntakeSourceID   string
	ComplaintID      *string
	CustomerID       *string
	RelatedAccountID *string
	RelatedCardID    *string
	TerminalID       *string
	Description      string
}

// CreateTicket opens a ticket with both tracks at their initial values.
// Creation is not a transition; it writes a CREATED activity entry and
// emits a created event.
func (s *LifecycleService) CreateTicket(ctx context.Context, input TicketCreateInput, actor domain.Actor) (*domain.Ticket, error) {
	if err := s.requireRef(ctx, domain.RefKindPriority, input.PriorityID, "priority_id"); err != nil {
		return nil, err
	}
	if err := s.requireRef(ctx, domain.RefKindChannel, input.IssueChannelID, "issue_channel_id"); err != nil {
		return nil, err
	}
	if err := s.requireRef(ctx, domain.RefKindSource, input.IntakeSourceID, "intake_source_id"); err != nil {
		return nil, err
	}
	if input.ComplaintID != nil {
		if err := s.requireRef(ctx, domain.RefKindComplaint, *input.ComplaintID, "complaint_id"); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		TicketNumber:     generateTicketNumber(),
		CustomerStatus:   domain.CustomerStatusAccepted,
		EmployeeStatus:   domain.EmployeeStatusOpen,
		PriorityID:       input.PriorityID,
		IssueChannelID:   input.IssueChannelID,
		IntakeSourceID:   input.IntakeSourceID,
		ComplaintID:      input.ComplaintID,
		CustomerID:       input.CustomerID,
		RelatedAccountID: input.RelatedAccountID,
		RelatedCardID:    input.RelatedCardID,
		TerminalID:       input.TerminalID,
		Description:      strings.TrimSpace(input.Description),
	}

	entry := &domain.ActivityEntry{
		Actor:   actor,
		Type:    domain.ActivityTypeCreated,
		Content: "ticket created",
	}
	if err := s.tickets.Create(ctx, ticket, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Actor:        actor,
		Payload: events.TicketCreatedPayload{
			ChannelID:  ticket.IssueChannelID,
			SourceID:   ticket.IntakeSourceID,
			CustomerID: ticket.CustomerID,
		},
	})
	return ticket, nil
}

// Classify resolves a policy for the ticket, assigns the owning
// division's least-recently-assigned active employee and computes the SLA
// deadline. A missing policy defers classification (the ticket stays
// unclassified); replaying the same inputs is a no-op.
func (s *LifecycleService) Classify(ctx context.Context, ticketID, complaintID, channelID, serviceName string, actor domain.Actor) (*domain.Ticket, error) {
	if err := s.requireRef(ctx, domain.RefKindComplaint, complaintID, "complaint_id"); err != nil {
		return nil, err
	}
	if err := s.requireRef(ctx, domain.RefKindChannel, channelID, "channel_id"); err != nil {
		return nil, err
	}

	current, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if current.Deleted() {
		return nil, apperrors.NewTicketDeleted(ticketID)
	}
	if current.EmployeeStatus.ReachedEscalation() {
		return nil, apperrors.NewConflict("reclassification locked after escalation", map[string]any{
			"employee_status": current.EmployeeStatus,
		})
	}

	policy, err := s.policies.Resolve(ctx, channelID, complaintID, serviceName)
	if err != nil {
		return nil, err
	}
	if current.PolicyID != nil && *current.PolicyID == policy.ID {
		return current, nil
	}

	assignee, err := s.nextAssignee(ctx, policy.UicID)
	if err != nil {
		return nil, err
	}
	dueAt := time.Now().Add(time.Duration(policy.SlaHours) * time.Hour)

	updated, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) (*domain.ActivityEntry, error) {
		if t.Deleted() {
			return nil, apperrors.NewTicketDeleted(ticketID)
		}
		if t.EmployeeStatus.ReachedEscalation() {
			return nil, apperrors.NewConflict("reclassification locked after escalation", nil)
		}
		if t.PolicyID != nil && *t.PolicyID == policy.ID {
			return nil, errNoChange
		}
		t.ComplaintID = &complaintID
		t.PolicyID = &policy.ID
		t.ResponsibleEmployeeID = &assignee.ID
		t.CommittedDueAt = &dueAt

		content, _ := json.Marshal(map[string]any{
			"policy_id":        policy.ID,
			"uic_id":           policy.UicID,
			"employee_id":      assignee.ID,
			"committed_due_at": dueAt,
		})
		return &domain.ActivityEntry{
			Actor:   actor,
			Type:    domain.ActivityTypeClassified,
			Content: string(content),
		}, nil
	})
	if err != nil {
		if errors.Is(err, errNoChange) {
			return s.getTicket(ctx, ticketID)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketUpdated,
		TicketID:     updated.ID,
		TicketNumber: updated.TicketNumber,
		Actor:        actor,
		Payload: events.ClassifiedPayload{
			PolicyID:       policy.ID,
			UicID:          policy.UicID,
			EmployeeID:     assignee.ID,
			CommittedDueAt: dueAt,
			CustomerID:     updated.CustomerID,
		},
	})
	return updated, nil
}

// Transition applies one status change on one track. The target must be
// reachable from the current status; nothing is corrected silently. An
// escalation validates reachability first and only then re-resolves
// division ownership, so a rejected transition never advances the
// assignment rotation, and a division without active staff leaves the
// ticket untouched.
func (s *LifecycleService) Transition(ctx context.Context, ticketID string, track domain.Track, target string, actor domain.Actor) (*domain.Ticket, error) {
	current, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if current.Deleted() {
		return nil, apperrors.NewTicketDeleted(ticketID)
	}
	if _, err := validateTransition(current, track, target); err != nil {
		return nil, err
	}

	escalating := track == domain.TrackEmployee && domain.EmployeeStatus(target) == domain.EmployeeStatusEscalated
	var assignee *domain.Employee
	if escalating {
		if current.PolicyID == nil {
			return nil, apperrors.NewConflict("cannot escalate an unclassified ticket", nil)
		}
		policy, err := s.policies.GetByID(ctx, *current.PolicyID)
		if err != nil {
			return nil, err
		}
		assignee, err = s.nextAssignee(ctx, policy.UicID)
		if err != nil {
			return nil, err
		}
	}

	var detail domain.StatusChangeDetail
	var priorEmployee *string
	updated, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) (*domain.ActivityEntry, error) {
		if t.Deleted() {
			return nil, apperrors.NewTicketDeleted(ticketID)
		}

		var verr error
		detail, verr = validateTransition(t, track, target)
		if verr != nil {
			return nil, verr
		}

		switch track {
		case domain.TrackCustomer:
			t.CustomerStatus = domain.CustomerStatus(target)
		case domain.TrackEmployee:
			next := domain.EmployeeStatus(target)
			t.EmployeeStatus = next
			if next.Terminal() {
				now := time.Now()
				t.ClosedTime = &now
			}
			if escalating && assignee != nil {
				prior := t.ResponsibleEmployeeID
				priorEmployee = prior
				t.ResponsibleEmployeeID = &assignee.ID
			}
		}

		return &domain.ActivityEntry{
			Actor:   actor,
			Type:    domain.ActivityTypeStatusChange,
			Content: domain.EncodeStatusChange(detail),
		}, nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:         transitionEventType(track, target),
		TicketID:     updated.ID,
		TicketNumber: updated.TicketNumber,
		Actor:        actor,
		Payload: events.TransitionPayload{
			Track:           detail.Track,
			FromStatus:      detail.From,
			ToStatus:        detail.To,
			CustomerID:      updated.CustomerID,
			PriorEmployeeID: priorEmployee,
			NewEmployeeID:   updated.ResponsibleEmployeeID,
		},
	})
	return updated, nil
}

// SoftDelete marks a ticket deleted. Deleted tickets keep their history
// and stay readable by id, but refuse further mutations.
func (s *LifecycleService) SoftDelete(ctx context.Context, ticketID string, actor domain.Actor) (*domain.Ticket, error) {
	if actor.ID == nil {
		return nil, apperrors.NewValidationError("delete requires an identified actor", nil)
	}
	updated, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) (*domain.ActivityEntry, error) {
		if t.Deleted() {
			return nil, apperrors.NewTicketDeleted(ticketID)
		}
		now := time.Now()
		t.DeletedAt = &now
		t.DeletedBy = actor.ID
		return &domain.ActivityEntry{
			Actor:   actor,
			Type:    domain.ActivityTypeDeleted,
			Content: "ticket soft-deleted",
		}, nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// Restore clears the soft-delete pair.
func (s *LifecycleService) Restore(ctx context.Context, ticketID string, actor domain.Actor) (*domain.Ticket, error) {
	updated, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) (*domain.ActivityEntry, error) {
		if !t.Deleted() {
			return nil, apperrors.NewConflict("ticket is not deleted", map[string]any{"ticket_id": ticketID})
		}
		t.DeletedAt = nil
		t.DeletedBy = nil
		return &domain.ActivityEntry{
			Actor:   actor,
			Type:    domain.ActivityTypeRestored,
			Content: "ticket restored",
		}, nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// GetTicket fetches a ticket by id, including soft-deleted ones.
func (s *LifecycleService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// ListTickets returns tickets matching the filter; soft-deleted tickets
// are excluded unless explicitly requested.
func (s *LifecycleService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetStatusHistory reconstructs the per-track status timeline from the
// activity log, not from the ticket's current fields.
func (s *LifecycleService) GetStatusHistory(ctx context.Context, ticketID string) ([]domain.StatusChangeRecord, error) {
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.activities.ListByTicketAndType(ctx, ticketID, domain.ActivityTypeStatusChange)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	records := make([]domain.StatusChangeRecord, 0, len(entries))
	for _, entry := range entries {
		detail, err := domain.DecodeStatusChange(entry.Content)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		records = append(records, domain.StatusChangeRecord{
			Detail:     detail,
			Actor:      entry.Actor,
			OccurredAt: entry.OccurredAt,
		})
	}
	return records, nil
}

// ListActivities returns the full audit trail for a ticket.
func (s *LifecycleService) ListActivities(ctx context.Context, ticketID string) ([]domain.ActivityEntry, error) {
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.activities.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// GetSlaBreaches lists tickets whose committed due time has passed while
// the employee track is non-terminal. The breach is derived, not stored.
func (s *LifecycleService) GetSlaBreaches(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListSlaBreached(ctx, time.Now())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AddDivisionNote appends a division note and mirrors it into the
// activity log as a comment entry.
func (s *LifecycleService) AddDivisionNote(ctx context.Context, ticketID string, author *domain.Employee, message string) (*domain.DivisionNote, error) {
	if author == nil || author.DivisionID == nil {
		return nil, apperrors.NewValidationError("author must belong to a division", nil)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Deleted() {
		return nil, apperrors.NewTicketDeleted(ticketID)
	}

	note := &domain.DivisionNote{
		TicketID:   ticket.ID,
		DivisionID: *author.DivisionID,
		AuthorID:   author.ID,
		Message:    message,
	}
	if err := s.notes.Append(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}

	entry := &domain.ActivityEntry{
		TicketID: ticket.ID,
		Actor:    domain.EmployeeActor(author.ID),
		Type:     domain.ActivityTypeComment,
		Content:  message,
	}
	if err := s.activities.Append(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	return note, nil
}

// ListDivisionNotes returns a ticket's note thread.
func (s *LifecycleService) ListDivisionNotes(ctx context.Context, ticketID string) ([]domain.DivisionNote, error) {
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notes, nil
}

func (s *LifecycleService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *LifecycleService) nextAssignee(ctx context.Context, divisionID string) (*domain.Employee, error) {
	employee, err := s.divisions.NextAssignee(ctx, divisionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNoActiveEmployee(divisionID)
		}
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

func (s *LifecycleService) requireRef(ctx context.Context, kind domain.RefKind, id, field string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError(field+" required", nil)
	}
	exists, err := s.refdata.Exists(ctx, kind, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !exists {
		return apperrors.NewValidationError("unknown "+field, map[string]any{field: id})
	}
	return nil
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// validateTransition checks that target names a known status reachable in
// one step on the given track. The ticket is not modified. Transition
// runs it twice: once against a fresh read before any side effect
// (notably the rotation pointer bump), and again against the locked row
// inside the mutation.
func validateTransition(t *domain.Ticket, track domain.Track, target string) (domain.StatusChangeDetail, error) {
	switch track {
	case domain.TrackCustomer:
		next := domain.CustomerStatus(target)
		if !next.Valid() {
			return domain.StatusChangeDetail{}, apperrors.NewValidationError("unknown customer status", map[string]any{"target": target})
		}
		if !t.CustomerStatus.CanTransitionTo(next) {
			return domain.StatusChangeDetail{}, apperrors.NewInvalidTransition(string(track), string(t.CustomerStatus), target)
		}
		return domain.StatusChangeDetail{Track: track, From: string(t.CustomerStatus), To: target}, nil
	case domain.TrackEmployee:
		next := domain.EmployeeStatus(target)
		if !next.Valid() {
			return domain.StatusChangeDetail{}, apperrors.NewValidationError("unknown employee status", map[string]any{"target": target})
		}
		if !t.EmployeeStatus.CanTransitionTo(next) {
			return domain.StatusChangeDetail{}, apperrors.NewInvalidTransition(string(track), string(t.EmployeeStatus), target)
		}
		return domain.StatusChangeDetail{Track: track, From: string(t.EmployeeStatus), To: target}, nil
	default:
		return domain.StatusChangeDetail{}, apperrors.NewValidationError("unknown track", map[string]any{"track": track})
	}
}

func transitionEventType(track domain.Track, target string) events.EventType {
	if track == domain.TrackEmployee && domain.EmployeeStatus(target) == domain.EmployeeStatusEscalated {
		return events.EventTicketEscalated
	}
	if target == string(domain.EmployeeStatusClosed) {
		return events.EventTicketClosed
	}
	return events.EventTicketUpdated
}

func generateTicketNumber() string {
	return "CMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
