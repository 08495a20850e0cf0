package repository

import (
	"context"

	"github.com/ventia/crm-api/internal/domain/entity"
)

// PlanRepository puerto de persistencia para Plan.
// Los planes referenciados por suscripciones no se borran: Deactivate
// los oculta del catálogo preservando la facturación histórica.
type PlanRepository interface {
	Create(ctx context.Context, plan *entity.Plan) error
	GetByID(ctx context.Context, id string) (*entity.Plan, error)
	ListActive(ctx context.Context) ([]*entity.Plan, error)
	Update(ctx context.Context, plan *entity.Plan) error
	Deactivate(ctx context.Context, id string) error
}
