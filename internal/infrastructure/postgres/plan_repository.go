package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

const planColumns = `id, name, price, billing_cycle, max_users, max_leads, max_teams, max_storage_mb, active, display_order, created_at, updated_at`

// PlanRepo implementación del puerto PlanRepository sobre PostgreSQL.
type PlanRepo struct {
	db DB
}

// NewPlanRepository construye el adaptador de persistencia para planes.
func NewPlanRepository(db DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Create persiste un nuevo plan.
func (r *PlanRepo) Create(ctx context.Context, plan *entity.Plan) error {
	query := `
		INSERT INTO plans (id, name, price, billing_cycle, max_users, max_leads, max_teams, max_storage_mb, active, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Exec(ctx, query,
		plan.ID, plan.Name, plan.Price, plan.BillingCycle, plan.MaxUsers, plan.MaxLeads,
		plan.MaxTeams, plan.MaxStorageMB, plan.Active, plan.DisplayOrder, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// GetByID obtiene un plan por ID (incluye desactivados, por facturación histórica).
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	var p entity.Plan
	err := r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.BillingCycle, &p.MaxUsers, &p.MaxLeads,
		&p.MaxTeams, &p.MaxStorageMB, &p.Active, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan by id: %w", err)
	}
	return &p, nil
}

// ListActive lista los planes activos ordenados para el catálogo.
func (r *PlanRepo) ListActive(ctx context.Context) ([]*entity.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE active = true ORDER BY display_order, price`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var list []*entity.Plan
	for rows.Next() {
		var p entity.Plan
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Price, &p.BillingCycle, &p.MaxUsers, &p.MaxLeads,
			&p.MaxTeams, &p.MaxStorageMB, &p.Active, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Update actualiza un plan. Solo afecta períodos futuros: las suscripciones
// en curso siguen facturando con los valores capturados en su factura.
func (r *PlanRepo) Update(ctx context.Context, plan *entity.Plan) error {
	query := `
		UPDATE plans SET name = $2, price = $3, billing_cycle = $4, max_users = $5, max_leads = $6,
			max_teams = $7, max_storage_mb = $8, active = $9, display_order = $10, updated_at = $11
		WHERE id = $1`
	_, err := r.db.Exec(ctx, query,
		plan.ID, plan.Name, plan.Price, plan.BillingCycle, plan.MaxUsers, plan.MaxLeads,
		plan.MaxTeams, plan.MaxStorageMB, plan.Active, plan.DisplayOrder, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return nil
}

// Deactivate oculta el plan del catálogo sin borrarlo.
func (r *PlanRepo) Deactivate(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE plans SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
