package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/auth"
	"github.com/ventia/crm-api/internal/application/authz"
	appbilling "github.com/ventia/crm-api/internal/application/billing"
	"github.com/ventia/crm-api/internal/application/catalog"
	"github.com/ventia/crm-api/internal/application/crm"
	"github.com/ventia/crm-api/internal/application/subscription"
	infrapdf "github.com/ventia/crm-api/internal/infrastructure/pdf"
	"github.com/ventia/crm-api/internal/infrastructure/postgres"
	httpRouter "github.com/ventia/crm-api/internal/interfaces/http"
	"github.com/ventia/crm-api/pkg/config"
	"github.com/ventia/crm-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	teamRepo := postgres.NewTeamRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	subRepo := postgres.NewSubscriptionRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	usageRepo := postgres.NewUsageRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	recorder := audit.NewRecorder(auditRepo, log)
	planCatalog := catalog.NewPlanCatalog(planRepo, cfg.Billing.PlanCacheTTLSeconds)
	scopeResolver := authz.NewScopeResolver(teamRepo)

	subscriptionUC := subscription.NewUseCase(txRunner, subRepo, usageRepo, planCatalog, recorder, subscription.BillingPolicy{
		TrialDays:             cfg.Billing.TrialDays,
		InvoiceRetryBudget:    cfg.Billing.InvoiceRetryBudget,
		ReactivationGraceDays: cfg.Billing.ReactivationGraceDays,
		InvoiceDueDays:        cfg.Billing.InvoiceDueDays,
	})
	invoiceUC := appbilling.NewInvoiceUseCase(invoiceRepo, subRepo, recorder)
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	invoicePDFUC := appbilling.NewPDFUseCase(invoiceRepo, companyRepo, pdfGenerator)
	clientUC := crm.NewClientUseCase(clientRepo, subscriptionUC)
	companyUC := crm.NewCompanyUseCase(companyRepo)
	teamUC := crm.NewTeamUseCase(teamRepo, userRepo, subscriptionUC)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, subscriptionUC, recorder, auth.JWTConfig{
		Secret:          cfg.JWT.Secret,
		ExpMinutes:      cfg.JWT.Expiration,
		Issuer:          cfg.JWT.Issuer,
		ResetExpMinutes: cfg.JWT.ResetExpiration,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Ventia CRM API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		ScopeResolver:  scopeResolver,
		PlanCatalog:    planCatalog,
		SubscriptionUC: subscriptionUC,
		InvoiceUC:      invoiceUC,
		InvoicePDF:     invoicePDFUC,
		ClientUC:       clientUC,
		CompanyUC:      companyUC,
		TeamUC:         teamUC,
		Recorder:       recorder,
		JWTSecret:      cfg.JWT.Secret,
		Rate:           cfg.Rate,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
