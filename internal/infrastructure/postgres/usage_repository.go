package postgres

import (
	"context"
	"fmt"

	"github.com/ventia/crm-api/internal/domain/repository"
)

var _ repository.UsageRepository = (*UsageRepo)(nil)

// UsageRepo conteos vivos por empresa para los chequeos de límites de plan.
type UsageRepo struct {
	db DB
}

// NewUsageRepository construye el adaptador de conteos de uso.
func NewUsageRepository(db DB) *UsageRepo {
	return &UsageRepo{db: db}
}

// CountUsers usuarios activos de la empresa.
func (r *UsageRepo) CountUsers(ctx context.Context, companyID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users WHERE company_id = $1 AND active = true`, companyID)
}

// CountClients clientes/leads de la empresa.
func (r *UsageRepo) CountClients(ctx context.Context, companyID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM clients WHERE company_id = $1`, companyID)
}

// CountTeams equipos de la empresa.
func (r *UsageRepo) CountTeams(ctx context.Context, companyID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM teams WHERE company_id = $1`, companyID)
}

func (r *UsageRepo) count(ctx context.Context, query, companyID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, query, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return n, nil
}
