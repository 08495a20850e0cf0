package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

var _ repository.TeamRepository = (*TeamRepo)(nil)

// TeamRepo implementación del puerto TeamRepository sobre PostgreSQL.
type TeamRepo struct {
	db DB
}

// NewTeamRepository construye el adaptador de persistencia para equipos.
func NewTeamRepository(db DB) *TeamRepo {
	return &TeamRepo{db: db}
}

// Create persiste un nuevo equipo.
func (r *TeamRepo) Create(ctx context.Context, team *entity.Team) error {
	query := `
		INSERT INTO teams (id, company_id, name, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		team.ID, team.CompanyID, team.Name, team.ManagerID, team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

// GetByID obtiene un equipo por ID.
func (r *TeamRepo) GetByID(ctx context.Context, id string) (*entity.Team, error) {
	query := `SELECT id, company_id, name, manager_id, created_at, updated_at FROM teams WHERE id = $1`
	var t entity.Team
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.CompanyID, &t.Name, &t.ManagerID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get team by id: %w", err)
	}
	return &t, nil
}

// ListVendorIDs devuelve los IDs de los vendedores del equipo (rol vendedor).
func (r *TeamRepo) ListVendorIDs(ctx context.Context, teamID string) ([]string, error) {
	query := `SELECT id FROM users WHERE team_id = $1 AND role = $2 AND active = true`
	rows, err := r.db.Query(ctx, query, teamID, entity.RoleVendedor)
	if err != nil {
		return nil, fmt.Errorf("list team vendors: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan vendor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByCompany lista los equipos de una empresa.
func (r *TeamRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Team, error) {
	query := `SELECT id, company_id, name, manager_id, created_at, updated_at FROM teams WHERE company_id = $1 ORDER BY name`
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()
	var list []*entity.Team
	for rows.Next() {
		var t entity.Team
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &t.ManagerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
