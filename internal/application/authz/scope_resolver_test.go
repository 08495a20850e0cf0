package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventia/crm-api/internal/application/authz"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fake del repo de equipos
// ──────────────────────────────────────────────────────────────────────────────

type fakeTeamRepo struct {
	vendorsByTeam map[string][]string
}

func (f *fakeTeamRepo) Create(ctx context.Context, team *entity.Team) error { return nil }

func (f *fakeTeamRepo) GetByID(ctx context.Context, id string) (*entity.Team, error) {
	return nil, nil
}

func (f *fakeTeamRepo) ListVendorIDs(ctx context.Context, teamID string) ([]string, error) {
	return f.vendorsByTeam[teamID], nil
}

func (f *fakeTeamRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Team, error) {
	return nil, nil
}

func userWithRole(role string) *entity.User {
	return &entity.User{ID: "user-1", CompanyID: "empresa-a", Role: role}
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo rol -> alcance
// ──────────────────────────────────────────────────────────────────────────────

func TestScopeFor_VendedorObtieneSelf(t *testing.T) {
	r := authz.NewScopeResolver(&fakeTeamRepo{})

	scope, err := r.ScopeFor(context.Background(), userWithRole(entity.RoleVendedor))
	require.NoError(t, err)

	assert.Equal(t, domain.ScopeSelf, scope.Kind)
	assert.Equal(t, "empresa-a", scope.TenantID)
	assert.Equal(t, []string{"user-1"}, scope.VendorIDs)
}

func TestScopeFor_GerenteObtieneTeamConSusVendedores(t *testing.T) {
	r := authz.NewScopeResolver(&fakeTeamRepo{
		vendorsByTeam: map[string][]string{"equipo-1": {"v-1", "v-2"}},
	})
	teamID := "equipo-1"
	gerente := userWithRole(entity.RoleGerente)
	gerente.TeamID = &teamID

	scope, err := r.ScopeFor(context.Background(), gerente)
	require.NoError(t, err)

	assert.Equal(t, domain.ScopeTeam, scope.Kind)
	// El gerente también queda incluido: sus leads propios son visibles.
	assert.ElementsMatch(t, []string{"v-1", "v-2", "user-1"}, scope.VendorIDs)
}

func TestScopeFor_GerenteSinEquipoFallaExplicito(t *testing.T) {
	// Sin equipo no hay amplificación a tenant ni alcance vacío silencioso:
	// el error es explícito y el request se rechaza.
	r := authz.NewScopeResolver(&fakeTeamRepo{})

	_, err := r.ScopeFor(context.Background(), userWithRole(entity.RoleGerente))
	assert.ErrorIs(t, err, domain.ErrNoTeamAssigned)
}

func TestScopeFor_AdminObtieneTenant(t *testing.T) {
	r := authz.NewScopeResolver(&fakeTeamRepo{})

	scope, err := r.ScopeFor(context.Background(), userWithRole(entity.RoleAdmin))
	require.NoError(t, err)

	assert.Equal(t, domain.ScopeTenant, scope.Kind)
	assert.Equal(t, "empresa-a", scope.TenantID)
	assert.Empty(t, scope.VendorIDs)
}

func TestScopeFor_SuperAdminObtieneGlobal(t *testing.T) {
	r := authz.NewScopeResolver(&fakeTeamRepo{})
	su := &entity.User{ID: "root", Role: entity.RoleSuperAdmin} // sin empresa

	scope, err := r.ScopeFor(context.Background(), su)
	require.NoError(t, err)

	assert.Equal(t, domain.ScopeGlobal, scope.Kind)
	assert.Empty(t, scope.TenantID)
}

func TestScopeFor_TenantSinResolverRechaza(t *testing.T) {
	r := authz.NewScopeResolver(&fakeTeamRepo{})
	sinEmpresa := &entity.User{ID: "user-1", Role: entity.RoleAdmin} // CompanyID vacío

	_, err := r.ScopeFor(context.Background(), sinEmpresa)
	assert.ErrorIs(t, err, domain.ErrTenantUnresolved)
}

func TestScopeFor_RolDesconocidoRechaza(t *testing.T) {
	r := authz.NewScopeResolver(&fakeTeamRepo{})

	_, err := r.ScopeFor(context.Background(), userWithRole("bodeguero"))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestScopeFor_CallerNilRechaza(t *testing.T) {
	r := authz.NewScopeResolver(&fakeTeamRepo{})

	_, err := r.ScopeFor(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
