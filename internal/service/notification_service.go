package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// RecipientRole keys the message template for one interested party.
type RecipientRole string

const (
	RoleCustomer      RecipientRole = "CUSTOMER"
	RolePriorAssignee RecipientRole = "PRIOR_ASSIGNEE"
	RoleAssignee      RecipientRole = "ASSIGNEE"
)

// Recipient is one delivery target of a transition event.
type Recipient struct {
	Role  RecipientRole
	Actor domain.Actor
}

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers one message to one recipient. Implementations own
// channel specifics (push token lookup, webhooks); an error means this
// recipient's delivery failed, nothing more.
type Notifier interface {
	Send(ctx context.Context, recipient Recipient, msg Message) error
}

// NotificationService consumes transition events and fans them out to the
// interested parties. Dispatch is fire-and-forget relative to the
// triggering mutation: failures are logged as activity entries and never
// propagated. Exactly one delivery attempt is made per event and
// recipient.
type NotificationService struct {
	dispatcher events.Dispatcher
	activities repository.ActivityRepository
	notifier   Notifier
	logger     *zap.Logger
	timeout    time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, activities repository.ActivityRepository, notifier Notifier, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		activities: activities,
		notifier:   notifier,
		logger:     logger,
		timeout:    cfg.PerRecipientTimeout(),
	}
}

// RegisterHandlers subscribes to all transition event types.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketEscalated,
		events.EventTicketClosed,
		events.EventTicketSlaWarning,
	} {
		n.dispatcher.Subscribe(eventType, n.handleEvent)
	}
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	for _, recipient := range recipientsOf(event) {
		n.deliver(ctx, event, recipient)
	}
	return nil
}

// deliver attempts one send under its own timeout and records the outcome
// as an activity entry, keeping "state changed" and "notification
// delivered" distinguishable in the audit trail.
func (n *NotificationService) deliver(ctx context.Context, event events.Event, recipient Recipient) {
	msg := renderMessage(event, recipient)

	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	sendErr := n.notifier.Send(sendCtx, recipient, msg)
	if sendErr != nil {
		n.logger.Warn("notification delivery failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.String("role", string(recipient.Role)),
			zap.Error(sendErr),
		)
	}

	outcome := map[string]any{
		"event_type":     event.Type,
		"recipient_role": recipient.Role,
		"recipient_kind": recipient.Actor.Kind,
		"delivered":      sendErr == nil,
	}
	if recipient.Actor.ID != nil {
		outcome["recipient_id"] = *recipient.Actor.ID
	}
	if sendErr != nil {
		outcome["error"] = sendErr.Error()
	}
	content, _ := json.Marshal(outcome)

	entry := &domain.ActivityEntry{
		TicketID: event.TicketID,
		Actor:    domain.SystemActor(),
		Type:     domain.ActivityTypeNotification,
		Content:  string(content),
	}
	if err := n.activities.Append(ctx, entry); err != nil {
		n.logger.Error("failed to record notification outcome", zap.Error(err))
	}
}

// recipientsOf resolves the interested parties from the event payload.
func recipientsOf(event events.Event) []Recipient {
	var recipients []Recipient
	addCustomer := func(id *string) {
		if id != nil {
			recipients = append(recipients, Recipient{Role: RoleCustomer, Actor: domain.CustomerActor(*id)})
		}
	}
	addEmployee := func(role RecipientRole, id *string) {
		if id != nil {
			recipients = append(recipients, Recipient{Role: role, Actor: domain.EmployeeActor(*id)})
		}
	}

	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		addCustomer(payload.CustomerID)
	case events.ClassifiedPayload:
		addCustomer(payload.CustomerID)
		addEmployee(RoleAssignee, &payload.EmployeeID)
	case events.TransitionPayload:
		addCustomer(payload.CustomerID)
		if payload.PriorEmployeeID != nil && (payload.NewEmployeeID == nil || *payload.PriorEmployeeID != *payload.NewEmployeeID) {
			addEmployee(RolePriorAssignee, payload.PriorEmployeeID)
		}
		addEmployee(RoleAssignee, payload.NewEmployeeID)
	case events.SlaWarningPayload:
		addCustomer(payload.CustomerID)
		addEmployee(RoleAssignee, payload.EmployeeID)
	}
	return recipients
}

var messageTemplates = map[events.EventType]map[RecipientRole]string{
	events.EventTicketCreated: {
		RoleCustomer: "We received your complaint %s and will keep you updated.",
	},
	events.EventTicketUpdated: {
		RoleCustomer: "Your complaint %s has been updated.",
		RoleAssignee: "Ticket %s assigned to you was updated.",
	},
	events.EventTicketEscalated: {
		RoleCustomer:      "Your complaint %s was forwarded to a specialist team.",
		RolePriorAssignee: "Ticket %s was escalated away from you.",
		RoleAssignee:      "Ticket %s was escalated to you.",
	},
	events.EventTicketClosed: {
		RoleCustomer: "Your complaint %s has been resolved and closed.",
		RoleAssignee: "Ticket %s is closed.",
	},
	events.EventTicketSlaWarning: {
		RoleCustomer: "Your complaint %s is taking longer than committed; we are on it.",
		RoleAssignee: "Ticket %s breached its SLA deadline.",
	},
}

func renderMessage(event events.Event, recipient Recipient) Message {
	template, ok := messageTemplates[event.Type][recipient.Role]
	if !ok {
		template = "Update on ticket %s."
	}
	return Message{
		Subject: fmt.Sprintf("Ticket %s", event.TicketNumber),
		Body:    fmt.Sprintf(template, event.TicketNumber),
	}
}
