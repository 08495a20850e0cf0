package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

// AuditHandler consulta del log de auditoría (admin y super_admin).
type AuditHandler struct {
	recorder *audit.Recorder
}

// NewAuditHandler construye el handler de auditoría.
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// Query godoc
// @Summary      Consultar log de auditoría
// @Tags         audit
// @Produce      json
// @Param        action      query  string  false  "filtro por acción"
// @Param        user_id     query  string  false  "filtro por usuario"
// @Param        entity_type query  string  false  "filtro por tipo de entidad"
// @Success      200  {array}  dto.AuditEntryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit [get]
func (h *AuditHandler) Query(c *fiber.Ctx) error {
	caller := GetUser(c)
	if caller == nil {
		return respondError(c, domain.ErrUnauthorized)
	}
	var in dto.AuditQueryRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "filtros inválidos"})
	}
	in.DefaultPage()

	f := repository.AuditFilters{
		CompanyID:  in.CompanyID,
		UserID:     in.UserID,
		Action:     in.Action,
		EntityType: in.EntityType,
	}
	if in.From != "" {
		t, err := time.Parse(time.RFC3339, in.From)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC 3339"})
		}
		f.From = &t
	}
	if in.To != "" {
		t, err := time.Parse(time.RFC3339, in.To)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC 3339"})
		}
		f.To = &t
	}

	entries, err := h.recorder.Query(c.Context(), caller, f, in.Limit, in.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditResponse(e))
	}
	return c.JSON(fiber.Map{
		"data": out,
		"page": dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	})
}

func toAuditResponse(e *entity.AuditLogEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:         e.ID,
		UserID:     e.UserID,
		CompanyID:  e.CompanyID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt,
	}
}
