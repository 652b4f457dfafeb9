package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
)

// fakeNotifier records every send and fails the recipient ids listed in
// failFor.
type fakeNotifier struct {
	sent    []Recipient
	failFor map[string]bool
}

func (f *fakeNotifier) Send(_ context.Context, recipient Recipient, _ Message) error {
	f.sent = append(f.sent, recipient)
	if recipient.Actor.ID != nil && f.failFor[*recipient.Actor.ID] {
		return fmt.Errorf("unreachable recipient %s", *recipient.Actor.ID)
	}
	return nil
}

func newNotificationFixture(failFor map[string]bool) (events.Dispatcher, *fakeStore, *fakeNotifier) {
	dispatcher := events.NewInMemoryDispatcher()
	store := newFakeStore()
	notifier := &fakeNotifier{failFor: failFor}
	ns := NewNotificationService(dispatcher, store, notifier, zap.NewNop(), config.NotificationConfig{
		PerRecipientTimeoutSeconds: 1,
	})
	ns.RegisterHandlers()
	return dispatcher, store, notifier
}

func escalationEvent() events.Event {
	customerID := "cust-1"
	prior := "emp-1"
	next := "emp-2"
	return events.Event{
		Type:         events.EventTicketEscalated,
		TicketID:     "t-1",
		TicketNumber: "CMP-AAAA",
		Actor:        domain.EmployeeActor(prior),
		Payload: events.TransitionPayload{
			Track:           domain.TrackEmployee,
			FromStatus:      string(domain.EmployeeStatusHandledByCxc),
			ToStatus:        string(domain.EmployeeStatusEscalated),
			CustomerID:      &customerID,
			PriorEmployeeID: &prior,
			NewEmployeeID:   &next,
		},
	}
}

func notificationOutcomes(t *testing.T, store *fakeStore, ticketID string) []map[string]any {
	t.Helper()
	entries, err := store.ListByTicketAndType(context.Background(), ticketID, domain.ActivityTypeNotification)
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	outcomes := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		if entry.Actor.Kind != domain.ActorKindSystem {
			t.Errorf("outcome entry recorded by %s, want SYSTEM", entry.Actor.Kind)
		}
		var outcome map[string]any
		if err := json.Unmarshal([]byte(entry.Content), &outcome); err != nil {
			t.Fatalf("decode outcome %q: %v", entry.Content, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func TestEscalationNotifiesAllParties(t *testing.T) {
	dispatcher, store, notifier := newNotificationFixture(nil)

	if err := dispatcher.Publish(context.Background(), escalationEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	wantRoles := map[RecipientRole]string{
		RoleCustomer:      "cust-1",
		RolePriorAssignee: "emp-1",
		RoleAssignee:      "emp-2",
	}
	if len(notifier.sent) != len(wantRoles) {
		t.Fatalf("sent to %d recipients, want %d", len(notifier.sent), len(wantRoles))
	}
	for _, recipient := range notifier.sent {
		wantID, ok := wantRoles[recipient.Role]
		if !ok {
			t.Errorf("unexpected recipient role %s", recipient.Role)
			continue
		}
		if recipient.Actor.ID == nil || *recipient.Actor.ID != wantID {
			t.Errorf("role %s delivered to %v, want %s", recipient.Role, recipient.Actor.ID, wantID)
		}
		delete(wantRoles, recipient.Role)
	}

	outcomes := notificationOutcomes(t, store, "t-1")
	if len(outcomes) != 3 {
		t.Fatalf("recorded %d outcomes, want 3", len(outcomes))
	}
	for _, outcome := range outcomes {
		if outcome["delivered"] != true {
			t.Errorf("outcome not delivered: %v", outcome)
		}
	}
}

func TestDeliveryFailureIsIsolated(t *testing.T) {
	dispatcher, store, notifier := newNotificationFixture(map[string]bool{"emp-1": true})

	if err := dispatcher.Publish(context.Background(), escalationEvent()); err != nil {
		t.Fatalf("publish must not surface delivery failures, got %v", err)
	}

	if len(notifier.sent) != 3 {
		t.Fatalf("one failing recipient stopped the fan-out: %d sends", len(notifier.sent))
	}

	byRecipient := make(map[string]map[string]any)
	for _, outcome := range notificationOutcomes(t, store, "t-1") {
		id, _ := outcome["recipient_id"].(string)
		byRecipient[id] = outcome
	}
	if outcome := byRecipient["emp-1"]; outcome["delivered"] != false || outcome["error"] == nil {
		t.Errorf("failed delivery not recorded: %v", outcome)
	}
	for _, id := range []string{"cust-1", "emp-2"} {
		if outcome := byRecipient[id]; outcome["delivered"] != true {
			t.Errorf("recipient %s outcome = %v, want delivered", id, outcome)
		}
	}
}

func TestPriorAssigneeSkippedWhenUnchanged(t *testing.T) {
	event := escalationEvent()
	payload := event.Payload.(events.TransitionPayload)
	payload.NewEmployeeID = payload.PriorEmployeeID
	event.Payload = payload

	recipients := recipientsOf(event)
	if len(recipients) != 2 {
		t.Fatalf("got %d recipients, want customer and assignee only", len(recipients))
	}
	for _, recipient := range recipients {
		if recipient.Role == RolePriorAssignee {
			t.Fatal("unchanged assignee must not be notified as prior assignee")
		}
	}
}

func TestCreatedEventNotifiesCustomerOnly(t *testing.T) {
	customerID := "cust-1"
	recipients := recipientsOf(events.Event{
		Type:    events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{CustomerID: &customerID},
	})
	if len(recipients) != 1 || recipients[0].Role != RoleCustomer {
		t.Fatalf("got %+v, want single customer recipient", recipients)
	}

	// Anonymous intake has nobody to notify.
	if got := recipientsOf(events.Event{
		Type:    events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{},
	}); len(got) != 0 {
		t.Fatalf("anonymous ticket produced recipients: %+v", got)
	}
}

func TestRenderMessageUsesTicketNumber(t *testing.T) {
	msg := renderMessage(events.Event{Type: events.EventTicketClosed, TicketNumber: "CMP-XYZ"}, Recipient{Role: RoleCustomer})
	if msg.Subject != "Ticket CMP-XYZ" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.Body != "Your complaint CMP-XYZ has been resolved and closed." {
		t.Errorf("body = %q", msg.Body)
	}

	fallback := renderMessage(events.Event{Type: events.EventTicketCreated, TicketNumber: "CMP-XYZ"}, Recipient{Role: RoleAssignee})
	if fallback.Body != "Update on ticket CMP-XYZ." {
		t.Errorf("fallback body = %q", fallback.Body)
	}
}
