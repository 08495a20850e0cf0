package repository

import (
	"context"

	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// ClientRepository puerto de persistencia para Client.
//
// Las lecturas de listado exigen un domain.Scope: no existe variante sin
// alcance, así una query que olvide el predicado simplemente no compila.
// GetByID es deliberadamente sin alcance para el patrón check-then-act de
// las mutaciones (leer, verificar propiedad contra el Scope, mutar).
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	ListByScope(ctx context.Context, scope domain.Scope, limit, offset int) ([]*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	Delete(ctx context.Context, id string) error
}

// UsageRepository conteos vivos de recursos por empresa, para contrastar
// contra los límites del plan.
type UsageRepository interface {
	CountUsers(ctx context.Context, companyID string) (int, error)
	CountClients(ctx context.Context, companyID string) (int, error)
	CountTeams(ctx context.Context, companyID string) (int, error)
}
