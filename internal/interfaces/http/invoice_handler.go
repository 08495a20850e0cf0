package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	appbilling "github.com/ventia/crm-api/internal/application/billing"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/application/subscription"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

// InvoiceHandler maneja el ledger de facturas y los avisos de pago.
type InvoiceHandler struct {
	uc    *appbilling.InvoiceUseCase
	subUC *subscription.UseCase
	pdfUC *appbilling.PDFUseCase
}

// NewInvoiceHandler construye el handler de facturas.
func NewInvoiceHandler(uc *appbilling.InvoiceUseCase, subUC *subscription.UseCase, pdfUC *appbilling.PDFUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, subUC: subUC, pdfUC: pdfUC}
}

// Create godoc
// @Summary      Crear factura manual
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "subscription_id, amount, due_date"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.SubscriptionID == "" || in.Amount.IsNegative() || in.DueDate.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "subscription_id, amount y due_date son requeridos"})
	}
	inv, err := h.uc.Create(c.Context(), GetUserID(c), TenantScopeID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toInvoiceResponse(inv))
}

// GetByID devuelve una factura del tenant del caller.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	inv, err := h.uc.Get(c.Context(), c.Params("id"), TenantScopeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toInvoiceResponse(inv))
}

// List lista facturas del tenant con filtros opcionales.
// GET /api/invoices?status=&from=&to=&limit=&offset=
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	f := repository.InvoiceFilters{Status: c.Query("status")}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC 3339"})
		}
		f.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC 3339"})
		}
		f.To = &t
	}

	invoices, err := h.uc.List(c.Context(), TenantScopeID(c), f, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": toInvoiceResponses(invoices),
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Cancel anula una factura no terminal.
// POST /api/invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	inv, err := h.uc.Cancel(c.Context(), GetUserID(c), TenantScopeID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toInvoiceResponse(inv))
}

// MarkPaid registra la confirmación de pago de una factura (pasarela o
// conciliación manual) y reactiva la suscripción si estaba en mora.
// POST /api/invoices/:id/paid
func (h *InvoiceHandler) MarkPaid(c *fiber.Ctx) error {
	if err := h.subUC.HandleInvoicePaid(c.Context(), GetUserID(c), TenantScopeID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// MarkFailed registra un intento de cobro fallido; al agotarse el presupuesto
// de reintentos la suscripción pasa a mora.
// POST /api/invoices/:id/failed
func (h *InvoiceHandler) MarkFailed(c *fiber.Ctx) error {
	if err := h.subUC.HandleInvoiceFailed(c.Context(), GetUserID(c), TenantScopeID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Overdue lista las facturas vencidas sin pagar del tenant.
// GET /api/invoices/overdue
func (h *InvoiceHandler) Overdue(c *fiber.Ctx) error {
	invoices, err := h.uc.FindOverdue(c.Context(), TenantScopeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toInvoiceResponses(invoices))
}

// Upcoming lista las facturas pendientes que vencen en los próximos días.
// GET /api/invoices/upcoming?days=7
func (h *InvoiceHandler) Upcoming(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "days debe ser positivo"})
	}
	invoices, err := h.uc.FindUpcoming(c.Context(), TenantScopeID(c), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toInvoiceResponses(invoices))
}

// Stats agregados de facturación del tenant.
// GET /api/invoices/stats
func (h *InvoiceHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.uc.Stats(c.Context(), TenantScopeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.InvoiceStatsResponse{
		PaidTotal:    stats.PaidTotal,
		PendingTotal: stats.PendingTotal,
		OverdueTotal: stats.OverdueTotal,
		Counts:       stats.Counts,
	})
}

// PDF descarga el recibo PDF de una factura.
// GET /api/invoices/:id/pdf
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	data, err := h.pdfUC.Generate(c.Context(), c.Params("id"), TenantScopeID(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="recibo-`+c.Params("id")+`.pdf"`)
	return c.Send(data)
}

func toInvoiceResponse(inv *entity.Invoice) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:             inv.ID,
		SubscriptionID: inv.SubscriptionID,
		CompanyID:      inv.CompanyID,
		Amount:         inv.Amount,
		DueDate:        inv.DueDate,
		Status:         inv.Status,
		PaidAt:         inv.PaidAt,
		AttemptCount:   inv.AttemptCount,
		Description:    inv.Description,
		CreatedAt:      inv.CreatedAt,
	}
}

func toInvoiceResponses(invoices []*entity.Invoice) []dto.InvoiceResponse {
	out := make([]dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	return out
}
