package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API clients.
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodePolicyNotFound    = "POLICY_NOT_FOUND"
	CodeNoActiveEmployee  = "NO_ACTIVE_EMPLOYEE"
	CodeTicketDeleted     = "TICKET_DELETED"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidTransition rejects a status change not reachable from the
// current state. The ticket is left untouched.
func NewInvalidTransition(track, from, to string) error {
	return NewDomainError(CodeInvalidTransition, "status transition not allowed", http.StatusConflict, map[string]any{
		"track": track,
		"from":  from,
		"to":    to,
	})
}

// NewPolicyNotFound signals that classification found no matching policy.
// Callers defer classification rather than failing the ticket.
func NewPolicyNotFound(channelID, complaintID, service string) error {
	return NewDomainError(CodePolicyNotFound, "no complaint policy matches", http.StatusNotFound, map[string]any{
		"channel_id":   channelID,
		"complaint_id": complaintID,
		"service":      service,
	})
}

// NewNoActiveEmployee signals that the owning division has no eligible
// staff; the ticket stays in its current state.
func NewNoActiveEmployee(divisionID string) error {
	return NewDomainError(CodeNoActiveEmployee, "division has no active employee", http.StatusConflict, map[string]any{
		"division_id": divisionID,
	})
}

// NewTicketDeleted rejects mutations on a soft-deleted ticket.
func NewTicketDeleted(ticketID string) error {
	return NewDomainError(CodeTicketDeleted, "ticket is soft-deleted", http.StatusConflict, map[string]any{
		"ticket_id": ticketID,
	})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts any error into the API error shape.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// CodeOf extracts the domain error code, or empty for non-domain errors.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
