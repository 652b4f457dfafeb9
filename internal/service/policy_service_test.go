package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

func sptr(s string) *string { return &s }

func TestPolicyWriteRejectsUnmatchableShape(t *testing.T) {
	// Validation runs before any repository or cache access.
	svc := NewPolicyService(nil, nil, zap.NewNop())

	tests := []struct {
		name   string
		policy domain.Policy
	}{
		{"service without channel", domain.Policy{
			ComplaintID: "LOGIN_ISSUE",
			Service:     sptr("BIFAST"),
			SlaHours:    24,
			UicID:       "div-1",
		}},
		{"missing complaint", domain.Policy{
			SlaHours: 24,
			UicID:    "div-1",
		}},
		{"missing uic", domain.Policy{
			ComplaintID: "LOGIN_ISSUE",
			SlaHours:    24,
		}},
		{"non-positive sla", domain.Policy{
			ComplaintID: "LOGIN_ISSUE",
			SlaHours:    0,
			UicID:       "div-1",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := tt.policy
			if err := svc.Create(context.Background(), &policy); apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
				t.Fatalf("create: expected VALIDATION_FAILED, got %v", err)
			}
			policy.ID = 1
			if err := svc.Update(context.Background(), &policy); apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
				t.Fatalf("update: expected VALIDATION_FAILED, got %v", err)
			}
		})
	}
}

func TestPolicyShapeAcceptsWildcards(t *testing.T) {
	for _, policy := range []domain.Policy{
		{ComplaintID: "LOGIN_ISSUE", SlaHours: 24, UicID: "div-1"},
		{ComplaintID: "LOGIN_ISSUE", ChannelID: sptr("MBANK"), SlaHours: 24, UicID: "div-1"},
		{ComplaintID: "LOGIN_ISSUE", ChannelID: sptr("MBANK"), Service: sptr("BIFAST"), SlaHours: 24, UicID: "div-1"},
	} {
		if err := validatePolicyShape(&policy); err != nil {
			t.Errorf("resolvable shape rejected: %+v: %v", policy, err)
		}
	}
}
