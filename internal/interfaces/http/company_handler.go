package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/crm"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// CompanyHandler alta y consulta de empresas y sus equipos de ventas.
type CompanyHandler struct {
	companyUC *crm.CompanyUseCase
	teamUC    *crm.TeamUseCase
}

// NewCompanyHandler construye el handler de empresas.
func NewCompanyHandler(companyUC *crm.CompanyUseCase, teamUC *crm.TeamUseCase) *CompanyHandler {
	return &CompanyHandler{companyUC: companyUC, teamUC: teamUC}
}

// Create godoc
// @Summary      Registrar empresa
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCompanyRequest  true  "name, email"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/companies [post]
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Name == "" || in.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name y email son requeridos"})
	}
	company, err := h.companyUC.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCompanyResponse(company))
}

// GetByID obtiene una empresa (la propia, salvo super_admin).
// GET /api/companies/:id
func (h *CompanyHandler) GetByID(c *fiber.Ctx) error {
	company, err := h.companyUC.GetByID(c.Context(), c.Params("id"), TenantScopeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toCompanyResponse(company))
}

// List lista empresas (solo super_admin, lo garantiza el router).
// GET /api/companies
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	companies, err := h.companyUC.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.CompanyResponse, 0, len(companies))
	for _, company := range companies {
		out = append(out, toCompanyResponse(company))
	}
	return c.JSON(out)
}

// CreateTeam alta de equipo de ventas en la empresa del caller.
// POST /api/teams
func (h *CompanyHandler) CreateTeam(c *fiber.Ctx) error {
	var in dto.CreateTeamRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	team, err := h.teamUC.Create(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTeamResponse(team))
}

// ListTeams equipos de la empresa del caller.
// GET /api/teams
func (h *CompanyHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.teamUC.ListByCompany(c.Context(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TeamResponse, 0, len(teams))
	for _, team := range teams {
		out = append(out, toTeamResponse(team))
	}
	return c.JSON(out)
}

func toCompanyResponse(company *entity.Company) dto.CompanyResponse {
	return dto.CompanyResponse{
		ID:        company.ID,
		Name:      company.Name,
		Email:     company.Email,
		Phone:     company.Phone,
		Status:    company.Status,
		CreatedAt: company.CreatedAt,
	}
}

func toTeamResponse(team *entity.Team) dto.TeamResponse {
	out := dto.TeamResponse{
		ID:        team.ID,
		CompanyID: team.CompanyID,
		Name:      team.Name,
		CreatedAt: team.CreatedAt,
	}
	if team.ManagerID != nil {
		out.ManagerID = *team.ManagerID
	}
	return out
}
