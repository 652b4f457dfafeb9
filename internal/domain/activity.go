package domain

import (
	"encoding/json"
	"time"
)

// ActorKind is the closed set of parties that can appear as the sender of
// an activity entry or the recipient of a notification.
type ActorKind string

const (
	ActorKindCustomer ActorKind = "CUSTOMER"
	ActorKindEmployee ActorKind = "EMPLOYEE"
	ActorKindSystem   ActorKind = "SYSTEM"
)

// Actor is a tagged variant of {Customer(id), Employee(id), System}.
// ID is nil exactly when Kind is SYSTEM.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   *string   `json:"id,omitempty"`
}

// CustomerActor tags an id as a customer actor.
func CustomerActor(id string) Actor {
	return Actor{Kind: ActorKindCustomer, ID: &id}
}

// EmployeeActor tags an id as an employee actor.
func EmployeeActor(id string) Actor {
	return Actor{Kind: ActorKindEmployee, ID: &id}
}

// SystemActor represents engine-generated entries.
func SystemActor() Actor {
	return Actor{Kind: ActorKindSystem}
}

// ActivityType enumerates the kinds of activity log entries.
type ActivityType string

const (
	ActivityTypeCreated      ActivityType = "CREATED"
	ActivityTypeComment      ActivityType = "COMMENT"
	ActivityTypeStatusChange ActivityType = "STATUS_CHANGE"
	ActivityTypeClassified   ActivityType = "CLASSIFIED"
	ActivityTypeNotification ActivityType = "NOTIFICATION"
	ActivityTypeDeleted      ActivityType = "DELETED"
	ActivityTypeRestored     ActivityType = "RESTORED"
)

// ActivityEntry is an immutable audit record. Entries are created once and
// never updated or deleted; the activity log is the canonical history from
// which status timelines are reconstructed.
type ActivityEntry struct {
	ID         string
	TicketID   string
	Actor      Actor
	Type       ActivityType
	Content    string
	OccurredAt time.Time
}

// StatusChangeDetail is the structured content of a STATUS_CHANGE entry.
type StatusChangeDetail struct {
	Track Track  `json:"track"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// EncodeStatusChange renders the detail as entry content.
func EncodeStatusChange(detail StatusChangeDetail) string {
	raw, _ := json.Marshal(detail)
	return string(raw)
}

// DecodeStatusChange parses STATUS_CHANGE entry content.
func DecodeStatusChange(content string) (StatusChangeDetail, error) {
	var detail StatusChangeDetail
	err := json.Unmarshal([]byte(content), &detail)
	return detail, err
}

// StatusChangeRecord is a reconstructed history item: the decoded detail
// plus the entry metadata needed to order and attribute it.
type StatusChangeRecord struct {
	Detail     StatusChangeDetail
	Actor      Actor
	OccurredAt time.Time
}
