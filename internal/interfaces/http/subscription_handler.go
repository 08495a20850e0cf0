package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/application/subscription"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// SubscriptionHandler maneja el ciclo de vida de la suscripción de la empresa.
type SubscriptionHandler struct {
	uc *subscription.UseCase
}

// NewSubscriptionHandler construye el handler de suscripciones.
func NewSubscriptionHandler(uc *subscription.UseCase) *SubscriptionHandler {
	return &SubscriptionHandler{uc: uc}
}

// GetActive godoc
// @Summary      Suscripción vigente de la empresa
// @Tags         subscriptions
// @Produce      json
// @Success      200  {object}  dto.SubscriptionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/subscription [get]
func (h *SubscriptionHandler) GetActive(c *fiber.Ctx) error {
	sub, err := h.uc.GetActive(c.Context(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	if sub == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "la empresa no tiene suscripción vigente"})
	}
	return c.JSON(toSubscriptionResponse(sub))
}

// CreateTrial inicia el período de prueba de la empresa.
// POST /api/subscription/trial
func (h *SubscriptionHandler) CreateTrial(c *fiber.Ctx) error {
	var in dto.CreateTrialRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sub, err := h.uc.CreateTrial(c.Context(), GetUserID(c), GetCompanyID(c), in.PlanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSubscriptionResponse(sub))
}

// Upgrade cambia a un plan más caro con efecto inmediato y cargo prorrateado.
// POST /api/subscription/upgrade
func (h *SubscriptionHandler) Upgrade(c *fiber.Ctx) error {
	var in dto.ChangePlanRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.PlanID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "plan_id requerido"})
	}
	sub, err := h.uc.Upgrade(c.Context(), GetUserID(c), GetCompanyID(c), in.PlanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSubscriptionResponse(sub))
}

// Downgrade agenda el cambio a un plan más barato para el cierre del período.
// POST /api/subscription/downgrade
func (h *SubscriptionHandler) Downgrade(c *fiber.Ctx) error {
	var in dto.ChangePlanRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.PlanID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "plan_id requerido"})
	}
	sub, err := h.uc.Downgrade(c.Context(), GetUserID(c), GetCompanyID(c), in.PlanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSubscriptionResponse(sub))
}

// Cancel cancela la suscripción, de inmediato o al cierre del período.
// POST /api/subscription/cancel
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sub, err := h.uc.Cancel(c.Context(), GetUserID(c), GetCompanyID(c), in.Immediate)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSubscriptionResponse(sub))
}

// Reactivate revierte una cancelación dentro de la ventana de gracia.
// POST /api/subscription/reactivate
func (h *SubscriptionHandler) Reactivate(c *fiber.Ctx) error {
	sub, err := h.uc.Reactivate(c.Context(), GetUserID(c), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSubscriptionResponse(sub))
}

// Usage devuelve el uso vivo de cada métrica contra los límites del plan.
// GET /api/subscription/usage
func (h *SubscriptionHandler) Usage(c *fiber.Ctx) error {
	metrics, err := h.uc.GetUsage(c.Context(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.UsageResponse{Metrics: make(map[string]dto.UsageMetric, len(metrics))}
	for metric, m := range metrics {
		out.Metrics[metric] = dto.UsageMetric{Used: m.Used, Limit: m.Limit}
	}
	return c.JSON(out)
}

func toSubscriptionResponse(s *entity.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:                 s.ID,
		CompanyID:          s.CompanyID,
		PlanID:             s.PlanID,
		PendingPlanID:      s.PendingPlanID,
		Status:             s.Status,
		TrialEndsAt:        s.TrialEndsAt,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CancelledAt:        s.CancelledAt,
	}
}
