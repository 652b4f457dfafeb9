package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// fakeStore implements TicketRepository and ActivityRepository against
// maps, mirroring the transactional contract: a mutation either commits
// the ticket update together with its activity entry, or writes nothing.
type fakeStore struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	entries []domain.ActivityEntry
	seq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tickets: make(map[string]*domain.Ticket)}
}

func (f *fakeStore) Create(_ context.Context, ticket *domain.Ticket, entry *domain.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ticket.ID = fmt.Sprintf("t-%d", f.seq)
	ticket.CreatedTime = time.Now()
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	if entry != nil {
		entry.TicketID = ticket.ID
		f.appendLocked(entry)
	}
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeStore) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.TicketNumber == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if !filter.IncludeDeleted && ticket.Deleted() {
			continue
		}
		if filter.CustomerID != nil && (ticket.CustomerID == nil || *ticket.CustomerID != *filter.CustomerID) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (f *fakeStore) ListSlaBreached(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if !ticket.Deleted() && ticket.SlaBreached(now) {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (f *fakeStore) Mutate(_ context.Context, id string, fn repository.MutateFunc) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	working := *stored
	entry, err := fn(&working)
	if err != nil {
		return nil, err
	}
	f.tickets[id] = &working
	if entry != nil {
		entry.TicketID = id
		f.appendLocked(entry)
	}
	copied := working
	return &copied, nil
}

func (f *fakeStore) Append(_ context.Context, entry *domain.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendLocked(entry)
	return nil
}

func (f *fakeStore) appendLocked(entry *domain.ActivityEntry) {
	f.seq++
	entry.ID = fmt.Sprintf("a-%d", f.seq)
	entry.OccurredAt = time.Now()
	f.entries = append(f.entries, *entry)
}

func (f *fakeStore) ListByTicket(_ context.Context, ticketID string) ([]domain.ActivityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.ActivityEntry
	for _, entry := range f.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (f *fakeStore) ListByTicketAndType(_ context.Context, ticketID string, activityType domain.ActivityType) ([]domain.ActivityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.ActivityEntry
	for _, entry := range f.entries {
		if entry.TicketID == ticketID && entry.Type == activityType {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (f *fakeStore) CountByTicket(_ context.Context, ticketID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, entry := range f.entries {
		if entry.TicketID == ticketID {
			count++
		}
	}
	return count, nil
}

// fakeDivisions hands out employees in list order, advancing a cursor the
// way the persisted rotation pointer does.
type fakeDivisions struct {
	divisions map[string]*domain.Division
	staff     map[string][]*domain.Employee
	cursor    map[string]int
}

func newFakeDivisions() *fakeDivisions {
	return &fakeDivisions{
		divisions: make(map[string]*domain.Division),
		staff:     make(map[string][]*domain.Employee),
		cursor:    make(map[string]int),
	}
}

func (f *fakeDivisions) GetByID(_ context.Context, id string) (*domain.Division, error) {
	division, ok := f.divisions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return division, nil
}

func (f *fakeDivisions) List(_ context.Context, _ bool) ([]domain.Division, error) {
	var result []domain.Division
	for _, division := range f.divisions {
		result = append(result, *division)
	}
	return result, nil
}

func (f *fakeDivisions) NextAssignee(_ context.Context, divisionID string) (*domain.Employee, error) {
	staff := f.staff[divisionID]
	if len(staff) == 0 {
		return nil, pgx.ErrNoRows
	}
	idx := f.cursor[divisionID] % len(staff)
	f.cursor[divisionID]++
	now := time.Now()
	staff[idx].LastAssignedAt = &now
	copied := *staff[idx]
	return &copied, nil
}

type fakeRefData struct {
	known map[string]bool
}

func (f *fakeRefData) Exists(_ context.Context, kind domain.RefKind, id string) (bool, error) {
	return f.known[string(kind)+"|"+id], nil
}

func (f *fakeRefData) List(_ context.Context, _ domain.RefKind) ([]domain.ReferenceEntry, error) {
	return nil, nil
}

type fakeNotes struct {
	notes []domain.DivisionNote
	seq   int
}

func (f *fakeNotes) Append(_ context.Context, note *domain.DivisionNote) error {
	f.seq++
	note.ID = fmt.Sprintf("n-%d", f.seq)
	note.CreatedAt = time.Now()
	f.notes = append(f.notes, *note)
	return nil
}

func (f *fakeNotes) ListByTicket(_ context.Context, ticketID string) ([]domain.DivisionNote, error) {
	var result []domain.DivisionNote
	for _, note := range f.notes {
		if note.TicketID == ticketID {
			result = append(result, note)
		}
	}
	return result, nil
}

type fakeResolver struct {
	policies []domain.Policy
}

func (f *fakeResolver) Resolve(_ context.Context, channelID, complaintID, service string) (*domain.Policy, error) {
	match := domain.ResolvePolicy(f.policies, channelID, complaintID, service)
	if match == nil {
		return nil, apperrors.NewPolicyNotFound(channelID, complaintID, service)
	}
	return match, nil
}

func (f *fakeResolver) GetByID(_ context.Context, id int64) (*domain.Policy, error) {
	for i := range f.policies {
		if f.policies[i].ID == id {
			copied := f.policies[i]
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFound("policy", nil)
}

type recordingDispatcher struct {
	events []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type lifecycleFixture struct {
	service    *LifecycleService
	store      *fakeStore
	divisions  *fakeDivisions
	resolver   *fakeResolver
	dispatcher *recordingDispatcher
	notes      *fakeNotes
}

func newLifecycleFixture() *lifecycleFixture {
	store := newFakeStore()
	divisions := newFakeDivisions()
	resolver := &fakeResolver{}
	dispatcher := &recordingDispatcher{}
	notes := &fakeNotes{}
	refdata := &fakeRefData{known: map[string]bool{
		"priorities|HIGH":                                  true,
		"issue_channels|MBANK":                             true,
		"issue_channels|ATM":                               true,
		"intake_sources|CALL_CENTER":                       true,
		"complaint_categories|TRANSFER_ATM_ALTO_BILATERAL": true,
		"complaint_categories|LOGIN_ISSUE":                 true,
	}}

	svc := NewLifecycleService(LifecycleDependencies{
		TicketRepo:   store,
		ActivityRepo: store,
		DivisionRepo: divisions,
		RefDataRepo:  refdata,
		NoteRepo:     notes,
		Policies:     resolver,
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
	})
	return &lifecycleFixture{
		service:    svc,
		store:      store,
		divisions:  divisions,
		resolver:   resolver,
		dispatcher: dispatcher,
		notes:      notes,
	}
}

func (f *lifecycleFixture) seedDivision(id string, employeeIDs ...string) {
	f.divisions.divisions[id] = &domain.Division{ID: id, Code: id, Name: id, IsActive: true}
	for _, employeeID := range employeeIDs {
		divID := id
		f.divisions.staff[id] = append(f.divisions.staff[id], &domain.Employee{
			ID:         employeeID,
			Role:       domain.EmployeeRoleUIC,
			DivisionID: &divID,
			Active:     true,
		})
	}
}

func (f *lifecycleFixture) createTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	customerID := "cust-1"
	ticket, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		PriorityID:     "HIGH",
		IssueChannelID: "MBANK",
		IntakeSourceID: "CALL_CENTER",
		CustomerID:     &customerID,
		Description:    "transfer failed but balance was debited",
	}, domain.CustomerActor(customerID))
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func agentActor() domain.Actor { return domain.EmployeeActor("agent-1") }

func TestCreateTicketInitialState(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)

	if ticket.CustomerStatus != domain.CustomerStatusAccepted {
		t.Errorf("customer status = %s, want ACCEPTED", ticket.CustomerStatus)
	}
	if ticket.EmployeeStatus != domain.EmployeeStatusOpen {
		t.Errorf("employee status = %s, want OPEN", ticket.EmployeeStatus)
	}
	if ticket.TicketNumber == "" {
		t.Error("ticket number not assigned")
	}
	if ticket.Classified() {
		t.Error("new ticket must not be classified")
	}

	entries, _ := f.store.ListByTicket(context.Background(), ticket.ID)
	if len(entries) != 1 || entries[0].Type != domain.ActivityTypeCreated {
		t.Fatalf("expected one CREATED entry, got %+v", entries)
	}
	if len(f.dispatcher.events) != 1 || f.dispatcher.events[0].Type != events.EventTicketCreated {
		t.Fatalf("expected one created event, got %+v", f.dispatcher.events)
	}
}

func TestCreateTicketUnknownReference(t *testing.T) {
	f := newLifecycleFixture()
	_, err := f.service.CreateTicket(context.Background(), TicketCreateInput{
		PriorityID:     "HIGH",
		IssueChannelID: "FAX",
		IntakeSourceID: "CALL_CENTER",
		Description:    "x",
	}, domain.SystemActor())
	if apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestClassifyAssignsAndSetsDeadline(t *testing.T) {
	f := newLifecycleFixture()
	f.seedDivision("div-1", "emp-1", "emp-2")
	f.resolver.policies = []domain.Policy{
		{ID: 10, ComplaintID: "TRANSFER_ATM_ALTO_BILATERAL", SlaHours: 48, UicID: "div-1"},
	}
	ticket := f.createTicket(t)

	before := time.Now()
	updated, err := f.service.Classify(context.Background(), ticket.ID, "TRANSFER_ATM_ALTO_BILATERAL", "MBANK", "", agentActor())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if updated.PolicyID == nil || *updated.PolicyID != 10 {
		t.Fatalf("policy id = %v, want 10", updated.PolicyID)
	}
	if updated.ResponsibleEmployeeID == nil || *updated.ResponsibleEmployeeID != "emp-1" {
		t.Fatalf("assignee = %v, want emp-1", updated.ResponsibleEmployeeID)
	}
	if updated.CommittedDueAt == nil {
		t.Fatal("committed due time not set")
	}
	wantDue := before.Add(48 * time.Hour)
	if diff := updated.CommittedDueAt.Sub(wantDue); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("due time %v too far from %v", updated.CommittedDueAt, wantDue)
	}

	entries, _ := f.store.ListByTicketAndType(context.Background(), ticket.ID, domain.ActivityTypeClassified)
	if len(entries) != 1 {
		t.Fatalf("expected one CLASSIFIED entry, got %d", len(entries))
	}
}

func TestClassifyReplayIsNoOp(t *testing.T) {
	f := newLifecycleFixture()
	f.seedDivision("div-1", "emp-1", "emp-2")
	f.resolver.policies = []domain.Policy{
		{ID: 10, ComplaintID: "TRANSFER_ATM_ALTO_BILATERAL", SlaHours: 48, UicID: "div-1"},
	}
	ticket := f.createTicket(t)

	first, err := f.service.Classify(context.Background(), ticket.ID, "TRANSFER_ATM_ALTO_BILATERAL", "MBANK", "", agentActor())
	if err != nil {
		t.Fatalf("first classify: %v", err)
	}
	entriesBefore, _ := f.store.CountByTicket(context.Background(), ticket.ID)
	eventsBefore := len(f.dispatcher.events)

	second, err := f.service.Classify(context.Background(), ticket.ID, "TRANSFER_ATM_ALTO_BILATERAL", "MBANK", "", agentActor())
	if err != nil {
		t.Fatalf("replayed classify: %v", err)
	}
	if *second.ResponsibleEmployeeID != *first.ResponsibleEmployeeID {
		t.Fatalf("replay reassigned: %s -> %s", *first.ResponsibleEmployeeID, *second.ResponsibleEmployeeID)
	}
	entriesAfter, _ := f.store.CountByTicket(context.Background(), ticket.ID)
	if entriesAfter != entriesBefore {
		t.Fatalf("replay wrote %d extra entries", entriesAfter-entriesBefore)
	}
	if len(f.dispatcher.events) != eventsBefore {
		t.Fatal("replay published an event")
	}
}

func TestClassifyPolicyNotFoundDefers(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)
	entriesBefore, _ := f.store.CountByTicket(context.Background(), ticket.ID)

	_, err := f.service.Classify(context.Background(), ticket.ID, "LOGIN_ISSUE", "MBANK", "", agentActor())
	if apperrors.CodeOf(err) != apperrors.CodePolicyNotFound {
		t.Fatalf("expected POLICY_NOT_FOUND, got %v", err)
	}

	current, _ := f.service.GetTicket(context.Background(), ticket.ID)
	if current.Classified() {
		t.Fatal("deferred classification must leave the ticket unclassified")
	}
	entriesAfter, _ := f.store.CountByTicket(context.Background(), ticket.ID)
	if entriesAfter != entriesBefore {
		t.Fatal("deferred classification wrote activity entries")
	}
}

func TestClassifyNoActiveEmployeeLeavesTicket(t *testing.T) {
	f := newLifecycleFixture()
	f.divisions.divisions["div-1"] = &domain.Division{ID: "div-1", IsActive: true}
	f.resolver.policies = []domain.Policy{
		{ID: 10, ComplaintID: "LOGIN_ISSUE", SlaHours: 24, UicID: "div-1"},
	}
	ticket := f.createTicket(t)

	_, err := f.service.Classify(context.Background(), ticket.ID, "LOGIN_ISSUE", "MBANK", "", agentActor())
	if apperrors.CodeOf(err) != apperrors.CodeNoActiveEmployee {
		t.Fatalf("expected NO_ACTIVE_EMPLOYEE, got %v", err)
	}
	current, _ := f.service.GetTicket(context.Background(), ticket.ID)
	if current.Classified() || current.ResponsibleEmployeeID != nil {
		t.Fatal("failed assignment must leave the ticket untouched")
	}
}

func TestClassifyLockedAfterEscalation(t *testing.T) {
	f := newLifecycleFixture()
	f.seedDivision("div-1", "emp-1")
	f.resolver.policies = []domain.Policy{
		{ID: 10, ComplaintID: "LOGIN_ISSUE", SlaHours: 24, UicID: "div-1"},
	}
	ticket := f.createTicket(t)
	f.store.tickets[ticket.ID].EmployeeStatus = domain.EmployeeStatusEscalated

	_, err := f.service.Classify(context.Background(), ticket.ID, "LOGIN_ISSUE", "MBANK", "", agentActor())
	if apperrors.CodeOf(err) != apperrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestTransitionRejectsUnreachableTarget(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)
	entriesBefore, _ := f.store.CountByTicket(context.Background(), ticket.ID)

	_, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusClosed), agentActor())
	if apperrors.CodeOf(err) != apperrors.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}

	current, _ := f.service.GetTicket(context.Background(), ticket.ID)
	if current.EmployeeStatus != domain.EmployeeStatusOpen {
		t.Fatalf("rejected transition changed status to %s", current.EmployeeStatus)
	}
	entriesAfter, _ := f.store.CountByTicket(context.Background(), ticket.ID)
	if entriesAfter != entriesBefore {
		t.Fatal("rejected transition wrote activity entries")
	}
}

func TestTransitionTracksAreIndependent(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)

	updated, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackCustomer, string(domain.CustomerStatusVerification), agentActor())
	if err != nil {
		t.Fatalf("customer transition: %v", err)
	}
	if updated.CustomerStatus != domain.CustomerStatusVerification {
		t.Fatalf("customer status = %s", updated.CustomerStatus)
	}
	if updated.EmployeeStatus != domain.EmployeeStatusOpen {
		t.Fatalf("employee track moved to %s", updated.EmployeeStatus)
	}
}

func TestEmployeeTerminalSetsClosedTime(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)

	mid, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusHandledByCxc), agentActor())
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if mid.ClosedTime != nil {
		t.Fatal("closed time set before terminal status")
	}

	done, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusDeclined), agentActor())
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if done.ClosedTime == nil {
		t.Fatal("terminal employee status must set closed time")
	}
}

func TestEscalationReassignsInRotation(t *testing.T) {
	f := newLifecycleFixture()
	f.seedDivision("div-1", "emp-1", "emp-2")
	f.resolver.policies = []domain.Policy{
		{ID: 10, ComplaintID: "TRANSFER_ATM_ALTO_BILATERAL", SlaHours: 48, UicID: "div-1"},
	}
	ticket := f.createTicket(t)

	if _, err := f.service.Classify(context.Background(), ticket.ID, "TRANSFER_ATM_ALTO_BILATERAL", "MBANK", "", agentActor()); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if _, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusHandledByCxc), agentActor()); err != nil {
		t.Fatalf("transition: %v", err)
	}

	escalated, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusEscalated), agentActor())
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if escalated.ResponsibleEmployeeID == nil || *escalated.ResponsibleEmployeeID != "emp-2" {
		t.Fatalf("assignee = %v, want emp-2", escalated.ResponsibleEmployeeID)
	}

	last := f.dispatcher.events[len(f.dispatcher.events)-1]
	if last.Type != events.EventTicketEscalated {
		t.Fatalf("event type = %s, want %s", last.Type, events.EventTicketEscalated)
	}
	payload, ok := last.Payload.(events.TransitionPayload)
	if !ok {
		t.Fatalf("payload type %T", last.Payload)
	}
	if payload.PriorEmployeeID == nil || *payload.PriorEmployeeID != "emp-1" {
		t.Fatalf("prior assignee = %v, want emp-1", payload.PriorEmployeeID)
	}
}

func TestRejectedEscalationLeavesRotationUntouched(t *testing.T) {
	f := newLifecycleFixture()
	f.seedDivision("div-1", "emp-1", "emp-2")
	f.resolver.policies = []domain.Policy{
		{ID: 10, ComplaintID: "TRANSFER_ATM_ALTO_BILATERAL", SlaHours: 48, UicID: "div-1"},
	}
	ticket := f.createTicket(t)
	admin := domain.EmployeeActor("admin-1")

	if _, err := f.service.Classify(context.Background(), ticket.ID, "TRANSFER_ATM_ALTO_BILATERAL", "MBANK", "", agentActor()); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got := f.divisions.cursor["div-1"]; got != 1 {
		t.Fatalf("cursor after classify = %d, want 1", got)
	}

	// ESCALATED is not reachable from OPEN.
	_, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusEscalated), agentActor())
	if apperrors.CodeOf(err) != apperrors.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
	if got := f.divisions.cursor["div-1"]; got != 1 {
		t.Fatalf("rejected escalation advanced the rotation pointer: cursor = %d, want 1", got)
	}

	if _, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusHandledByCxc), agentActor()); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := f.service.SoftDelete(context.Background(), ticket.ID, admin); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	_, err = f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusEscalated), agentActor())
	if apperrors.CodeOf(err) != apperrors.CodeTicketDeleted {
		t.Fatalf("expected TICKET_DELETED, got %v", err)
	}
	if got := f.divisions.cursor["div-1"]; got != 1 {
		t.Fatalf("deleted-ticket escalation advanced the rotation pointer: cursor = %d, want 1", got)
	}

	// The next legitimate escalation still gets the slot the rejected
	// attempts must not have burned.
	if _, err := f.service.Restore(context.Background(), ticket.ID, admin); err != nil {
		t.Fatalf("restore: %v", err)
	}
	escalated, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusEscalated), agentActor())
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if escalated.ResponsibleEmployeeID == nil || *escalated.ResponsibleEmployeeID != "emp-2" {
		t.Fatalf("assignee = %v, want emp-2", escalated.ResponsibleEmployeeID)
	}
}

func TestEscalateUnclassifiedRejected(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)
	if _, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusHandledByCxc), agentActor()); err != nil {
		t.Fatalf("transition: %v", err)
	}

	_, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackEmployee, string(domain.EmployeeStatusEscalated), agentActor())
	if apperrors.CodeOf(err) != apperrors.CodeConflict {
		t.Fatalf("expected CONFLICT for unclassified escalation, got %v", err)
	}
}

func TestSoftDeleteBlocksAndRestoreUnblocks(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)
	admin := domain.EmployeeActor("admin-1")

	if _, err := f.service.SoftDelete(context.Background(), ticket.ID, admin); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	_, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackCustomer, string(domain.CustomerStatusVerification), agentActor())
	if apperrors.CodeOf(err) != apperrors.CodeTicketDeleted {
		t.Fatalf("expected TICKET_DELETED, got %v", err)
	}

	// Deleted tickets stay readable with history intact.
	current, err := f.service.GetTicket(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("get deleted ticket: %v", err)
	}
	if !current.Deleted() {
		t.Fatal("ticket not marked deleted")
	}

	if _, err := f.service.Restore(context.Background(), ticket.ID, admin); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := f.service.Transition(context.Background(), ticket.ID, domain.TrackCustomer, string(domain.CustomerStatusVerification), agentActor()); err != nil {
		t.Fatalf("transition after restore: %v", err)
	}
}

func TestSoftDeleteTwiceRejected(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)
	admin := domain.EmployeeActor("admin-1")

	if _, err := f.service.SoftDelete(context.Background(), ticket.ID, admin); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	_, err := f.service.SoftDelete(context.Background(), ticket.ID, admin)
	if apperrors.CodeOf(err) != apperrors.CodeTicketDeleted {
		t.Fatalf("expected TICKET_DELETED, got %v", err)
	}
}

func TestStatusHistoryRoundTrip(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)

	steps := []struct {
		track  domain.Track
		target string
	}{
		{domain.TrackCustomer, string(domain.CustomerStatusVerification)},
		{domain.TrackEmployee, string(domain.EmployeeStatusHandledByCxc)},
		{domain.TrackCustomer, string(domain.CustomerStatusProcessing)},
		{domain.TrackEmployee, string(domain.EmployeeStatusDeclined)},
	}
	for _, step := range steps {
		if _, err := f.service.Transition(context.Background(), ticket.ID, step.track, step.target, agentActor()); err != nil {
			t.Fatalf("transition %s -> %s: %v", step.track, step.target, err)
		}
	}

	records, err := f.service.GetStatusHistory(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != len(steps) {
		t.Fatalf("got %d records, want %d", len(records), len(steps))
	}
	for i, step := range steps {
		if records[i].Detail.Track != step.track || records[i].Detail.To != step.target {
			t.Errorf("record %d = %+v, want %s -> %s", i, records[i].Detail, step.track, step.target)
		}
	}
	// Each record's From must chain off the previous one on its track.
	if records[2].Detail.From != string(domain.CustomerStatusVerification) {
		t.Errorf("customer chain broken: %+v", records[2].Detail)
	}
}

func TestAddDivisionNote(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)
	divID := "div-1"
	author := &domain.Employee{ID: "emp-1", DivisionID: &divID, Role: domain.EmployeeRoleUIC}

	note, err := f.service.AddDivisionNote(context.Background(), ticket.ID, author, "verified with switching logs")
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if note.DivisionID != divID || note.AuthorID != "emp-1" {
		t.Fatalf("note attribution wrong: %+v", note)
	}

	comments, _ := f.store.ListByTicketAndType(context.Background(), ticket.ID, domain.ActivityTypeComment)
	if len(comments) != 1 {
		t.Fatalf("expected mirrored COMMENT entry, got %d", len(comments))
	}

	if _, err := f.service.AddDivisionNote(context.Background(), ticket.ID, &domain.Employee{ID: "emp-2"}, "no division"); apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED for author without division, got %v", err)
	}
}

func TestGetSlaBreaches(t *testing.T) {
	f := newLifecycleFixture()
	ticket := f.createTicket(t)

	past := time.Now().Add(-2 * time.Hour)
	f.store.tickets[ticket.ID].CommittedDueAt = &past
	f.store.tickets[ticket.ID].EmployeeStatus = domain.EmployeeStatusEscalated

	breached, err := f.service.GetSlaBreaches(context.Background())
	if err != nil {
		t.Fatalf("sla breaches: %v", err)
	}
	if len(breached) != 1 || breached[0].ID != ticket.ID {
		t.Fatalf("got %+v, want ticket %s", breached, ticket.ID)
	}

	f.store.tickets[ticket.ID].EmployeeStatus = domain.EmployeeStatusClosed
	breached, _ = f.service.GetSlaBreaches(context.Background())
	if len(breached) != 0 {
		t.Fatal("terminal ticket must not report as breached")
	}
}
