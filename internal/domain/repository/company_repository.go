package repository

import (
	"context"

	"github.com/ventia/crm-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)
}

// TeamRepository puerto de persistencia para Team.
type TeamRepository interface {
	Create(ctx context.Context, team *entity.Team) error
	GetByID(ctx context.Context, id string) (*entity.Team, error)
	// ListVendorIDs devuelve los IDs de los vendedores que pertenecen al equipo.
	ListVendorIDs(ctx context.Context, teamID string) ([]string, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Team, error)
}
