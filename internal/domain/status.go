package domain

// Track names one of the two independent status dimensions of a ticket.
type Track string

const (
	TrackCustomer Track = "CUSTOMER"
	TrackEmployee Track = "EMPLOYEE"
)

// CustomerStatus is the customer-facing progress track.
type CustomerStatus string

const (
	CustomerStatusAccepted     CustomerStatus = "ACCEPTED"
	CustomerStatusVerification CustomerStatus = "VERIFICATION"
	CustomerStatusProcessing   CustomerStatus = "PROCESSING"
	CustomerStatusClosed       CustomerStatus = "CLOSED"
	CustomerStatusDeclined     CustomerStatus = "DECLINED"
)

// EmployeeStatus is the internal handling track.
type EmployeeStatus string

const (
	EmployeeStatusOpen         EmployeeStatus = "OPEN"
	EmployeeStatusHandledByCxc EmployeeStatus = "HANDLED_BY_CXC"
	EmployeeStatusEscalated    EmployeeStatus = "ESCALATED"
	EmployeeStatusDoneByUic    EmployeeStatus = "DONE_BY_UIC"
	EmployeeStatusClosed       EmployeeStatus = "CLOSED"
	EmployeeStatusDeclined     EmployeeStatus = "DECLINED"
)

// customerTransitions is the customer track state machine. Absent keys
// are terminal states.
var customerTransitions = map[CustomerStatus][]CustomerStatus{
	CustomerStatusAccepted:     {CustomerStatusVerification},
	CustomerStatusVerification: {CustomerStatusProcessing},
	CustomerStatusProcessing:   {CustomerStatusClosed, CustomerStatusDeclined},
}

// employeeTransitions is the internal track state machine. There is no
// shortcut from OPEN to CLOSED; every closure passes through handling.
var employeeTransitions = map[EmployeeStatus][]EmployeeStatus{
	EmployeeStatusOpen:         {EmployeeStatusHandledByCxc},
	EmployeeStatusHandledByCxc: {EmployeeStatusEscalated, EmployeeStatusDeclined},
	EmployeeStatusEscalated:    {EmployeeStatusDoneByUic, EmployeeStatusDeclined},
	EmployeeStatusDoneByUic:    {EmployeeStatusClosed},
}

// Valid reports whether the value is a known customer status.
func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerStatusAccepted, CustomerStatusVerification, CustomerStatusProcessing,
		CustomerStatusClosed, CustomerStatusDeclined:
		return true
	}
	return false
}

// Terminal reports whether no further customer transitions exist.
func (s CustomerStatus) Terminal() bool {
	return s.Valid() && len(customerTransitions[s]) == 0
}

// CanTransitionTo reports whether target is reachable in one step.
func (s CustomerStatus) CanTransitionTo(target CustomerStatus) bool {
	for _, next := range customerTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Valid reports whether the value is a known employee status.
func (s EmployeeStatus) Valid() bool {
	switch s {
	case EmployeeStatusOpen, EmployeeStatusHandledByCxc, EmployeeStatusEscalated,
		EmployeeStatusDoneByUic, EmployeeStatusClosed, EmployeeStatusDeclined:
		return true
	}
	return false
}

// Terminal reports whether no further employee transitions exist.
func (s EmployeeStatus) Terminal() bool {
	return s.Valid() && len(employeeTransitions[s]) == 0
}

// CanTransitionTo reports whether target is reachable in one step.
func (s EmployeeStatus) CanTransitionTo(target EmployeeStatus) bool {
	for _, next := range employeeTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ReachedEscalation reports whether the internal track has passed the
// point of escalation, after which reclassification is locked.
func (s EmployeeStatus) ReachedEscalation() bool {
	switch s {
	case EmployeeStatusEscalated, EmployeeStatusDoneByUic, EmployeeStatusClosed:
		return true
	}
	return false
}
