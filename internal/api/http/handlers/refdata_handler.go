package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// RefDataHandler serves the read-only lookup tables intake forms are
// built from.
type RefDataHandler struct {
	refdata repository.RefDataRepository
}

// NewRefDataHandler constructs handler.
func NewRefDataHandler(refdata repository.RefDataRepository) *RefDataHandler {
	return &RefDataHandler{refdata: refdata}
}

var refKinds = map[string]domain.RefKind{
	"priorities":           domain.RefKindPriority,
	"issue-channels":       domain.RefKindChannel,
	"intake-sources":       domain.RefKindSource,
	"complaint-categories": domain.RefKindComplaint,
	"activity-types":       domain.RefKindActivityType,
	"sender-types":         domain.RefKindSenderType,
}

// List GET /refdata/:kind.
func (h *RefDataHandler) List(c *fiber.Ctx) error {
	kind, ok := refKinds[c.Params("kind")]
	if !ok {
		return apperrors.NewNotFound("reference kind", map[string]any{"kind": c.Params("kind")})
	}
	entries, err := h.refdata.List(c.Context(), kind)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.ReferenceResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ReferenceResponse{ID: entry.ID, Label: entry.Label})
	}
	return c.JSON(fiber.Map{"data": items})
}
