package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/authz"
	"github.com/ventia/crm-api/internal/application/crm"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// ClientHandler maneja clientes/leads bajo la política de alcance del rol.
// El Scope se resuelve una vez por request y alimenta cada operación.
type ClientHandler struct {
	uc       *crm.ClientUseCase
	resolver *authz.ScopeResolver
}

// NewClientHandler construye el handler de clientes.
func NewClientHandler(uc *crm.ClientUseCase, resolver *authz.ScopeResolver) *ClientHandler {
	return &ClientHandler{uc: uc, resolver: resolver}
}

func (h *ClientHandler) callerScope(c *fiber.Ctx) (*entity.User, domain.Scope, error) {
	user := GetUser(c)
	if user == nil {
		return nil, domain.Scope{}, domain.ErrUnauthorized
	}
	scope, err := h.resolver.ScopeFor(c.Context(), user)
	if err != nil {
		return nil, domain.Scope{}, err
	}
	return user, scope, nil
}

// Create godoc
// @Summary      Crear cliente
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClientRequest  true  "name, vendor_id opcional"
// @Success      201   {object}  dto.ClientResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/clients [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	user, scope, err := h.callerScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var in dto.CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name requerido"})
	}
	client, err := h.uc.Create(c.Context(), user, scope, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toClientResponse(client))
}

// List clientes visibles según el alcance del caller.
// GET /api/clients?limit=&offset=
func (h *ClientHandler) List(c *fiber.Ctx) error {
	_, scope, err := h.callerScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	clients, err := h.uc.List(c.Context(), scope, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ClientResponse, 0, len(clients))
	for _, cl := range clients {
		out = append(out, toClientResponse(cl))
	}
	return c.JSON(fiber.Map{
		"data": out,
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// GetByID obtiene un cliente dentro del alcance.
// GET /api/clients/:id
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	_, scope, err := h.callerScope(c)
	if err != nil {
		return respondError(c, err)
	}
	client, err := h.uc.Get(c.Context(), scope, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toClientResponse(client))
}

// Update edita un cliente dentro del alcance.
// PUT /api/clients/:id
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	_, scope, err := h.callerScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	client, err := h.uc.Update(c.Context(), scope, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toClientResponse(client))
}

// Delete elimina un cliente dentro del alcance.
// DELETE /api/clients/:id
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	_, scope, err := h.callerScope(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.Context(), scope, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toClientResponse(cl *entity.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        cl.ID,
		CompanyID: cl.CompanyID,
		VendorID:  cl.VendorID,
		Name:      cl.Name,
		Email:     cl.Email,
		Phone:     cl.Phone,
		Status:    cl.Status,
		CreatedAt: cl.CreatedAt,
		UpdatedAt: cl.UpdatedAt,
	}
}
