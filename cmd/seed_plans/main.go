// seed_plans puebla el catálogo de planes con los niveles por defecto.
// Idempotente: los planes ya existentes (por ID) se actualizan, no se duplican.
//
// Uso: go run ./cmd/seed_plans
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/infrastructure/postgres"
	"github.com/ventia/crm-api/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	planRepo := postgres.NewPlanRepository(pool)
	now := time.Now()

	plans := []*entity.Plan{
		{
			ID:           "plan-starter-monthly",
			Name:         "Starter",
			Price:        decimal.NewFromInt(19),
			BillingCycle: entity.BillingCycleMonthly,
			MaxUsers:     3,
			MaxLeads:     500,
			MaxTeams:     1,
			MaxStorageMB: 1024,
			Active:       true,
			DisplayOrder: 1,
		},
		{
			ID:           "plan-profesional-monthly",
			Name:         "Profesional",
			Price:        decimal.NewFromInt(49),
			BillingCycle: entity.BillingCycleMonthly,
			MaxUsers:     15,
			MaxLeads:     5000,
			MaxTeams:     5,
			MaxStorageMB: 10240,
			Active:       true,
			DisplayOrder: 2,
		},
		{
			ID:           "plan-empresarial-monthly",
			Name:         "Empresarial",
			Price:        decimal.NewFromInt(129),
			BillingCycle: entity.BillingCycleMonthly,
			MaxUsers:     100,
			MaxLeads:     50000,
			MaxTeams:     25,
			MaxStorageMB: 102400,
			Active:       true,
			DisplayOrder: 3,
		},
		{
			ID:           "plan-empresarial-yearly",
			Name:         "Empresarial Anual",
			Price:        decimal.NewFromInt(1290),
			BillingCycle: entity.BillingCycleYearly,
			MaxUsers:     100,
			MaxLeads:     50000,
			MaxTeams:     25,
			MaxStorageMB: 102400,
			Active:       true,
			DisplayOrder: 4,
		},
	}

	created, updated := 0, 0
	for _, plan := range plans {
		existing, err := planRepo.GetByID(ctx, plan.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "consultar plan %s: %v\n", plan.ID, err)
			os.Exit(1)
		}
		plan.UpdatedAt = now
		if existing == nil {
			plan.CreatedAt = now
			if err := planRepo.Create(ctx, plan); err != nil {
				fmt.Fprintf(os.Stderr, "crear plan %s: %v\n", plan.ID, err)
				os.Exit(1)
			}
			created++
			continue
		}
		plan.CreatedAt = existing.CreatedAt
		if err := planRepo.Update(ctx, plan); err != nil {
			fmt.Fprintf(os.Stderr, "actualizar plan %s: %v\n", plan.ID, err)
			os.Exit(1)
		}
		updated++
	}

	fmt.Printf("Catálogo de planes: %d creados, %d actualizados\n", created, updated)
}
