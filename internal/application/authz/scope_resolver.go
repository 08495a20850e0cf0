package authz

import (
	"context"

	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

// ScopeResolver calcula el domain.Scope de un principal una vez por request.
// El valor resultante se pasa explícito a la capa de datos: sustituye al
// patrón de re-derivar vendedores permitidos con una query extra en cada
// controlador.
type ScopeResolver struct {
	teamRepo repository.TeamRepository
}

// NewScopeResolver construye el resolver con el repo de equipos.
func NewScopeResolver(teamRepo repository.TeamRepository) *ScopeResolver {
	return &ScopeResolver{teamRepo: teamRepo}
}

// ScopeFor deriva el alcance del rol del usuario:
//   - vendedor    -> Self (solo filas propias)
//   - gerente     -> Team (vendedores de su equipo); sin equipo -> ErrNoTeamAssigned,
//     nunca se amplía a tenant ni se reduce a "nada" en silencio
//   - admin       -> Tenant (toda la empresa)
//   - super_admin -> Global (solo endpoints administrativos cross-tenant)
func (r *ScopeResolver) ScopeFor(ctx context.Context, user *entity.User) (domain.Scope, error) {
	if user == nil {
		return domain.Scope{}, domain.ErrUnauthorized
	}
	if user.Role != entity.RoleSuperAdmin && user.CompanyID == "" {
		return domain.Scope{}, domain.ErrTenantUnresolved
	}

	switch user.Role {
	case entity.RoleVendedor:
		return domain.SelfScope(user.CompanyID, user.ID), nil

	case entity.RoleGerente:
		if user.TeamID == nil || *user.TeamID == "" {
			return domain.Scope{}, domain.ErrNoTeamAssigned
		}
		vendorIDs, err := r.teamRepo.ListVendorIDs(ctx, *user.TeamID)
		if err != nil {
			return domain.Scope{}, err
		}
		// El gerente también ve las filas que posee él mismo (leads propios).
		vendorIDs = appendIfMissing(vendorIDs, user.ID)
		return domain.TeamScope(user.CompanyID, vendorIDs), nil

	case entity.RoleAdmin:
		return domain.TenantScope(user.CompanyID), nil

	case entity.RoleSuperAdmin:
		return domain.GlobalScope(), nil
	}

	return domain.Scope{}, domain.ErrForbidden
}

func appendIfMissing(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
