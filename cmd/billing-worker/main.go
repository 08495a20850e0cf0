package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/catalog"
	"github.com/ventia/crm-api/internal/application/subscription"
	"github.com/ventia/crm-api/internal/infrastructure/postgres"
	"github.com/ventia/crm-api/pkg/config"
	"github.com/ventia/crm-api/pkg/logger"
)

// billing-worker cierra períodos de suscripción vencidos: aplica downgrades
// pendientes, ejecuta cancelaciones al cierre y emite la factura de
// renovación. Corre como proceso aparte del API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().Str("env", cfg.App.Env).Msg("iniciando billing-worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	subRepo := postgres.NewSubscriptionRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	usageRepo := postgres.NewUsageRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	recorder := audit.NewRecorder(auditRepo, log)
	planCatalog := catalog.NewPlanCatalog(planRepo, cfg.Billing.PlanCacheTTLSeconds)
	subscriptionUC := subscription.NewUseCase(txRunner, subRepo, usageRepo, planCatalog, recorder, subscription.BillingPolicy{
		TrialDays:             cfg.Billing.TrialDays,
		InvoiceRetryBudget:    cfg.Billing.InvoiceRetryBudget,
		ReactivationGraceDays: cfg.Billing.ReactivationGraceDays,
		InvoiceDueDays:        cfg.Billing.InvoiceDueDays,
	})

	interval := time.Duration(cfg.Billing.WorkerIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Int("batch", cfg.Billing.RolloverBatchSize).Msg("worker en marcha")

	runPass(ctx, log, subscriptionUC, invoiceRepo, cfg.Billing.RolloverBatchSize)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("billing-worker detenido")
			return
		case <-ticker.C:
			runPass(ctx, log, subscriptionUC, invoiceRepo, cfg.Billing.RolloverBatchSize)
		}
	}
}

// runPass drena los períodos vencidos en lotes hasta que no quede trabajo.
func runPass(ctx context.Context, log *logger.Logger, uc *subscription.UseCase, invoices *postgres.InvoiceRepo, batchSize int) {
	now := time.Now()
	total := 0
	for {
		n, err := uc.RolloverDuePeriods(ctx, now, batchSize)
		if err != nil {
			log.Error().Err(err).Msg("cierre de períodos")
			break
		}
		total += n
		if n < batchSize {
			break
		}
	}
	if total > 0 {
		log.Info().Int("subscriptions", total).Msg("períodos cerrados")
	}

	// Visibilidad de mora: el cobro es de la pasarela, acá solo se reporta.
	overdue, err := invoices.FindOverdue(ctx, "", now)
	if err != nil {
		log.Error().Err(err).Msg("consulta de facturas vencidas")
		return
	}
	if len(overdue) > 0 {
		log.Warn().Int("invoices", len(overdue)).Msg("facturas vencidas sin pagar")
	}
}
