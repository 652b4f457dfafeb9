package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// PoliciesHandler manages complaint policy administration.
type PoliciesHandler struct {
	service *service.PolicyService
}

// NewPoliciesHandler constructs handler.
func NewPoliciesHandler(policyService *service.PolicyService) *PoliciesHandler {
	return &PoliciesHandler{service: policyService}
}

// List GET /admin/policies.
func (h *PoliciesHandler) List(c *fiber.Ctx) error {
	policies, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for _, policy := range policies {
		items = append(items, policyResponse(policy))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /admin/policies/:id.
func (h *PoliciesHandler) Get(c *fiber.Ctx) error {
	id, err := parsePolicyID(c)
	if err != nil {
		return err
	}
	policy, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policyResponse(*policy)})
}

// Create POST /admin/policies.
func (h *PoliciesHandler) Create(c *fiber.Ctx) error {
	var req dto.PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ComplaintID == "" || req.UicID == "" {
		return apperrors.NewValidationError("complaint_id, uic_id required", nil)
	}

	policy := &domain.Policy{
		ChannelID:   req.ChannelID,
		ComplaintID: req.ComplaintID,
		Service:     req.Service,
		SlaHours:    req.SlaHours,
		UicID:       req.UicID,
		Description: req.Description,
	}
	if err := h.service.Create(c.Context(), policy); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": policyResponse(*policy)})
}

// Update PUT /admin/policies/:id.
func (h *PoliciesHandler) Update(c *fiber.Ctx) error {
	id, err := parsePolicyID(c)
	if err != nil {
		return err
	}
	var req dto.PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ComplaintID == "" || req.UicID == "" {
		return apperrors.NewValidationError("complaint_id, uic_id required", nil)
	}

	policy := &domain.Policy{
		ID:          id,
		ChannelID:   req.ChannelID,
		ComplaintID: req.ComplaintID,
		Service:     req.Service,
		SlaHours:    req.SlaHours,
		UicID:       req.UicID,
		Description: req.Description,
	}
	if err := h.service.Update(c.Context(), policy); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policyResponse(*policy)})
}

func parsePolicyID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid policy id", nil)
	}
	return id, nil
}

func policyResponse(policy domain.Policy) dto.PolicyResponse {
	return dto.PolicyResponse{
		ID:          policy.ID,
		ChannelID:   policy.ChannelID,
		ComplaintID: policy.ComplaintID,
		Service:     policy.Service,
		SlaHours:    policy.SlaHours,
		UicID:       policy.UicID,
		Description: policy.Description,
	}
}
