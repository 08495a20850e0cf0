package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/auth"
	"github.com/ventia/crm-api/internal/application/authz"
	appbilling "github.com/ventia/crm-api/internal/application/billing"
	"github.com/ventia/crm-api/internal/application/catalog"
	"github.com/ventia/crm-api/internal/application/crm"
	"github.com/ventia/crm-api/internal/application/subscription"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/pkg/config"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	ScopeResolver  *authz.ScopeResolver
	PlanCatalog    *catalog.PlanCatalog
	SubscriptionUC *subscription.UseCase
	InvoiceUC      *appbilling.InvoiceUseCase
	InvoicePDF     *appbilling.PDFUseCase
	ClientUC       *crm.ClientUseCase
	CompanyUC      *crm.CompanyUseCase
	TeamUC         *crm.TeamUseCase
	Recorder       *audit.Recorder
	JWTSecret      string
	Rate           config.RateLimitConfig
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	adminRoles := []string{entity.RoleAdmin, entity.RoleSuperAdmin}

	// Auth (público). Login y reseteo llevan limiter propio por IP: las
	// ventanas no se comparten entre operaciones.
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.AuthUC)
	authGroup.Post("/login",
		RateLimitByIP(deps.Rate.LoginMax, deps.Rate.LoginWindowSec),
		authHandler.Login)
	authGroup.Post("/password-reset",
		RateLimitByIP(deps.Rate.ResetMax, deps.Rate.ResetWindowSec),
		authHandler.ResetPassword)

	// Catálogo de planes (público, solo lectura).
	plans := api.Group("/plans")
	planHandler := NewPlanHandler(deps.PlanCatalog)
	plans.Get("/", planHandler.List)
	plans.Get("/compare", planHandler.Compare)
	plans.Get("/:id", planHandler.GetByID)

	// Alta de empresa (público: onboarding).
	companyHandler := NewCompanyHandler(deps.CompanyUC, deps.TeamUC)
	api.Post("/companies", companyHandler.Create)

	// Rutas protegidas: JWT + validación de sesión contra la DB.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.AuthUC))

	protected.Post("/auth/register",
		RequireRole(adminRoles...),
		RateLimitByTenant(deps.Rate.CreationMax, deps.Rate.CreationWindowSec),
		authHandler.Register)
	protected.Post("/auth/logout-all", authHandler.LogoutEverywhere)
	protected.Patch("/users/:id/active", RequireRole(adminRoles...), authHandler.SetUserActive)

	// Companies (protegido)
	protected.Get("/companies", RequireRole(entity.RoleSuperAdmin), companyHandler.List)
	protected.Get("/companies/:id", companyHandler.GetByID)

	// Teams (protegido)
	protected.Post("/teams",
		RequireRole(adminRoles...),
		RateLimitByTenant(deps.Rate.CreationMax, deps.Rate.CreationWindowSec),
		companyHandler.CreateTeam)
	protected.Get("/teams", companyHandler.ListTeams)

	// Suscripción de la empresa (protegido). Las transiciones son de admin;
	// la consulta y el uso los ve cualquier rol del tenant.
	sub := protected.Group("/subscription")
	subHandler := NewSubscriptionHandler(deps.SubscriptionUC)
	sub.Get("/", subHandler.GetActive)
	sub.Get("/usage", subHandler.Usage)
	sub.Post("/trial", RequireRole(adminRoles...), subHandler.CreateTrial)
	sub.Post("/upgrade", RequireRole(adminRoles...), subHandler.Upgrade)
	sub.Post("/downgrade", RequireRole(adminRoles...), subHandler.Downgrade)
	sub.Post("/cancel", RequireRole(adminRoles...), subHandler.Cancel)
	sub.Post("/reactivate", RequireRole(adminRoles...), subHandler.Reactivate)

	// Facturas (protegido). Las rutas estáticas van antes de /:id.
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.SubscriptionUC, deps.InvoicePDF)
	invoices.Get("/overdue", invoiceHandler.Overdue)
	invoices.Get("/upcoming", invoiceHandler.Upcoming)
	invoices.Get("/stats", invoiceHandler.Stats)
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/",
		RequireRole(adminRoles...),
		RateLimitByTenant(deps.Rate.CreationMax, deps.Rate.CreationWindowSec),
		invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/pdf", invoiceHandler.PDF)
	invoices.Post("/:id/cancel", RequireRole(adminRoles...), invoiceHandler.Cancel)
	invoices.Post("/:id/paid", RequireRole(adminRoles...), invoiceHandler.MarkPaid)
	invoices.Post("/:id/failed", RequireRole(adminRoles...), invoiceHandler.MarkFailed)

	// Clientes/leads (protegido, bajo política de alcance).
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC, deps.ScopeResolver)
	clients.Post("/",
		RateLimitByTenant(deps.Rate.CreationMax, deps.Rate.CreationWindowSec),
		clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", clientHandler.Delete)

	// Auditoría (protegido, admin)
	auditHandler := NewAuditHandler(deps.Recorder)
	protected.Get("/audit", RequireRole(adminRoles...), auditHandler.Query)
}
