package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// PolicyResolver is the lookup surface the lifecycle engine depends on.
type PolicyResolver interface {
	Resolve(ctx context.Context, channelID, complaintID, service string) (*domain.Policy, error)
	GetByID(ctx context.Context, id int64) (*domain.Policy, error)
}

const policyCacheTTL = 10 * time.Minute

// PolicyService performs deterministic policy resolution and administers
// the policy table. Candidate rows are cached per complaint category in
// redis and invalidated on administrative writes.
type PolicyService struct {
	policies repository.PolicyRepository
	cache    *redis.Client
	logger   *zap.Logger
}

// NewPolicyService constructs the service. cache may be nil.
func NewPolicyService(policies repository.PolicyRepository, cache *redis.Client, logger *zap.Logger) *PolicyService {
	return &PolicyService{policies: policies, cache: cache, logger: logger}
}

// Resolve picks the most specific policy for the inputs, or returns
// POLICY_NOT_FOUND so the caller can defer classification.
func (s *PolicyService) Resolve(ctx context.Context, channelID, complaintID, service string) (*domain.Policy, error) {
	candidates, err := s.candidates(ctx, complaintID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	match := domain.ResolvePolicy(candidates, channelID, complaintID, service)
	if match == nil {
		return nil, apperrors.NewPolicyNotFound(channelID, complaintID, service)
	}
	return match, nil
}

// GetByID fetches one policy row.
func (s *PolicyService) GetByID(ctx context.Context, id int64) (*domain.Policy, error) {
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("policy", map[string]any{"policy_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// List returns all policies ordered by id.
func (s *PolicyService) List(ctx context.Context) ([]domain.Policy, error) {
	policies, err := s.policies.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

// validatePolicyShape rejects rows the resolver could never match.
func validatePolicyShape(policy *domain.Policy) error {
	if policy.ComplaintID == "" {
		return apperrors.NewValidationError("complaint_id required", nil)
	}
	if policy.UicID == "" {
		return apperrors.NewValidationError("uic_id required", nil)
	}
	if policy.SlaHours <= 0 {
		return apperrors.NewValidationError("sla_hours must be positive", nil)
	}
	// A service-specific row is only reachable through the exact tier,
	// which also requires a channel; without one it is a dead row.
	if policy.Service != nil && *policy.Service != "" && (policy.ChannelID == nil || *policy.ChannelID == "") {
		return apperrors.NewValidationError("service-specific policies require a channel", map[string]any{
			"service": *policy.Service,
		})
	}
	return nil
}

// Create adds a policy row and invalidates the affected cache entry.
func (s *PolicyService) Create(ctx context.Context, policy *domain.Policy) error {
	if err := validatePolicyShape(policy); err != nil {
		return err
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return apperrors.MapError(err)
	}
	s.invalidate(ctx, policy.ComplaintID)
	return nil
}

// Update replaces a policy row and invalidates both the old and new
// complaint cache entries.
func (s *PolicyService) Update(ctx context.Context, policy *domain.Policy) error {
	if err := validatePolicyShape(policy); err != nil {
		return err
	}
	previous, err := s.policies.GetByID(ctx, policy.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("policy", map[string]any{"policy_id": policy.ID})
		}
		return apperrors.MapError(err)
	}
	if err := s.policies.Update(ctx, policy); err != nil {
		return apperrors.MapError(err)
	}
	s.invalidate(ctx, previous.ComplaintID)
	if previous.ComplaintID != policy.ComplaintID {
		s.invalidate(ctx, policy.ComplaintID)
	}
	return nil
}

func (s *PolicyService) candidates(ctx context.Context, complaintID string) ([]domain.Policy, error) {
	key := policyCacheKey(complaintID)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var cached []domain.Policy
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("policy cache read failed", zap.Error(err))
		}
	}

	policies, err := s.policies.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(policies); err == nil {
			if err := s.cache.Set(ctx, key, raw, policyCacheTTL).Err(); err != nil {
				s.logger.Warn("policy cache write failed", zap.Error(err))
			}
		}
	}
	return policies, nil
}

func (s *PolicyService) invalidate(ctx context.Context, complaintID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, policyCacheKey(complaintID)).Err(); err != nil {
		s.logger.Warn("policy cache invalidation failed", zap.Error(err))
	}
}

func policyCacheKey(complaintID string) string {
	return fmt.Sprintf("policies:complaint:%s", complaintID)
}
