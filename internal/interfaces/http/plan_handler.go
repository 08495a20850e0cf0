package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/catalog"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// PlanHandler expone el catálogo de planes (solo lectura).
type PlanHandler struct {
	catalog *catalog.PlanCatalog
}

// NewPlanHandler construye el handler de planes.
func NewPlanHandler(cat *catalog.PlanCatalog) *PlanHandler {
	return &PlanHandler{catalog: cat}
}

// List godoc
// @Summary      Listar planes disponibles
// @Tags         plans
// @Produce      json
// @Success      200  {array}  dto.PlanResponse
// @Router       /api/plans [get]
func (h *PlanHandler) List(c *fiber.Ctx) error {
	plans, err := h.catalog.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	return c.JSON(out)
}

// GetByID devuelve un plan del catálogo.
// GET /api/plans/:id
func (h *PlanHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	plan, err := h.catalog.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toPlanResponse(plan))
}

// Compare indica si pasar de un plan a otro es upgrade, downgrade o lateral.
// GET /api/plans/compare?from=<id>&to=<id>
func (h *PlanHandler) Compare(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from y to son requeridos"})
	}
	cmp, err := h.catalog.Compare(c.Context(), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"from":         from,
		"to":           to,
		"is_upgrade":   cmp.IsUpgrade,
		"price_delta":  cmp.PriceDelta,
		"limit_deltas": cmp.LimitDeltas,
	})
}

func toPlanResponse(p *entity.Plan) dto.PlanResponse {
	return dto.PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		BillingCycle: p.BillingCycle,
		MaxUsers:     p.MaxUsers,
		MaxLeads:     p.MaxLeads,
		MaxTeams:     p.MaxTeams,
		MaxStorageMB: p.MaxStorageMB,
		DisplayOrder: p.DisplayOrder,
	}
}
