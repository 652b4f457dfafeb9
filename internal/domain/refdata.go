package domain

// RefKind names a reference-data lookup table.
type RefKind string

const (
	RefKindPriority     RefKind = "priorities"
	RefKindChannel      RefKind = "issue_channels"
	RefKindSource       RefKind = "intake_sources"
	RefKindComplaint    RefKind = "complaint_categories"
	RefKindActivityType RefKind = "activity_types"
	RefKindSenderType   RefKind = "sender_types"
)

// ReferenceEntry is one row of a read-only lookup table.
type ReferenceEntry struct {
	ID    string
	Label string
}

// SubjectType differentiates customer vs employee auth principals.
type SubjectType string

const (
	SubjectTypeCustomer SubjectType = "CUSTOMER"
	SubjectTypeEmployee SubjectType = "EMPLOYEE"
)
