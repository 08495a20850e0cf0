package crm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventia/crm-api/internal/application/crm"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeClientRepo struct {
	clients map[string]*entity.Client
	deleted []string
	updated int
}

func newFakeClientRepo(clients ...*entity.Client) *fakeClientRepo {
	r := &fakeClientRepo{clients: map[string]*entity.Client{}}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

func (r *fakeClientRepo) Create(ctx context.Context, client *entity.Client) error {
	r.clients[client.ID] = client
	return nil
}

// Devuelve una copia: un usecase que mute el resultado sin pasar por Update
// no debe tocar el "almacenado".
func (r *fakeClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) ListByScope(ctx context.Context, scope domain.Scope, limit, offset int) ([]*entity.Client, error) {
	var out []*entity.Client
	for _, c := range r.clients {
		if scope.AllowsVendor(c.CompanyID, c.VendorID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeClientRepo) Update(ctx context.Context, client *entity.Client) error {
	r.clients[client.ID] = client
	r.updated++
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, id string) error {
	delete(r.clients, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// Dos vendedores de la misma empresa; V3 queda fuera del equipo del gerente.
func seedClients() *fakeClientRepo {
	return newFakeClientRepo(
		&entity.Client{ID: "cli-v", CompanyID: "empresa", VendorID: "vendedor-v", Name: "Cliente de V", Status: "lead"},
		&entity.Client{ID: "cli-w", CompanyID: "empresa", VendorID: "vendedor-w", Name: "Cliente de W", Status: "lead"},
		&entity.Client{ID: "cli-v3", CompanyID: "empresa", VendorID: "vendedor-v3", Name: "Cliente de V3", Status: "lead"},
	)
}

// ──────────────────────────────────────────────────────────────────────────────
// Check-then-act sobre filas concretas
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_VendedorNoVeClienteDeOtroVendedor(t *testing.T) {
	uc := crm.NewClientUseCase(seedClients(), nil)
	scope := domain.SelfScope("empresa", "vendedor-v")

	_, err := uc.Get(context.Background(), scope, "cli-w")

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGet_VendedorVeSuPropioCliente(t *testing.T) {
	uc := crm.NewClientUseCase(seedClients(), nil)
	scope := domain.SelfScope("empresa", "vendedor-v")

	client, err := uc.Get(context.Background(), scope, "cli-v")

	require.NoError(t, err)
	assert.Equal(t, "vendedor-v", client.VendorID)
}

func TestGet_AdminVeCualquierClienteDeSuEmpresa(t *testing.T) {
	uc := crm.NewClientUseCase(seedClients(), nil)
	scope := domain.TenantScope("empresa")

	client, err := uc.Get(context.Background(), scope, "cli-w")

	require.NoError(t, err)
	assert.Equal(t, "cli-w", client.ID)
}

func TestGet_GerenteNoVeClienteFueraDeSuEquipo(t *testing.T) {
	uc := crm.NewClientUseCase(seedClients(), nil)
	scope := domain.TeamScope("empresa", []string{"vendedor-v", "vendedor-w"})

	// Dentro del equipo pasa.
	_, err := uc.Get(context.Background(), scope, "cli-w")
	require.NoError(t, err)

	// V3 no pertenece al equipo del gerente.
	_, err = uc.Get(context.Background(), scope, "cli-v3")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGet_ClienteInexistenteEsNotFound(t *testing.T) {
	uc := crm.NewClientUseCase(seedClients(), nil)

	_, err := uc.Get(context.Background(), domain.TenantScope("empresa"), "cli-nada")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_FueraDeAlcanceNoMuta(t *testing.T) {
	repo := seedClients()
	uc := crm.NewClientUseCase(repo, nil)
	scope := domain.SelfScope("empresa", "vendedor-v")

	_, err := uc.Update(context.Background(), scope, "cli-w", dto.UpdateClientRequest{Name: "Pisado"})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 0, repo.updated)
	assert.Equal(t, "Cliente de W", repo.clients["cli-w"].Name, "la fila ajena queda intacta")
}

func TestUpdate_DentroDelAlcancePersiste(t *testing.T) {
	repo := seedClients()
	uc := crm.NewClientUseCase(repo, nil)
	scope := domain.TeamScope("empresa", []string{"vendedor-v", "vendedor-w"})

	client, err := uc.Update(context.Background(), scope, "cli-w", dto.UpdateClientRequest{Status: "contactado"})

	require.NoError(t, err)
	assert.Equal(t, "contactado", client.Status)
	assert.Equal(t, "contactado", repo.clients["cli-w"].Status)
}

func TestDelete_FueraDeAlcanceNoBorra(t *testing.T) {
	repo := seedClients()
	uc := crm.NewClientUseCase(repo, nil)
	scope := domain.TeamScope("empresa", []string{"vendedor-v", "vendedor-w"})

	err := uc.Delete(context.Background(), scope, "cli-v3")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, repo.deleted)
	assert.NotNil(t, repo.clients["cli-v3"])
}

func TestDelete_AdminBorraCualquieraDeSuEmpresa(t *testing.T) {
	repo := seedClients()
	uc := crm.NewClientUseCase(repo, nil)

	err := uc.Delete(context.Background(), domain.TenantScope("empresa"), "cli-v3")

	require.NoError(t, err)
	assert.Nil(t, repo.clients["cli-v3"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Create — el propietario asignado debe caer dentro del alcance
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_VendedorNoAsignaAOtroVendedor(t *testing.T) {
	repo := seedClients()
	uc := crm.NewClientUseCase(repo, nil)
	caller := &entity.User{ID: "vendedor-v", CompanyID: "empresa", Role: entity.RoleVendedor}
	scope := domain.SelfScope("empresa", "vendedor-v")

	_, err := uc.Create(context.Background(), caller, scope, dto.CreateClientRequest{
		Name:     "Cliente nuevo",
		VendorID: "vendedor-w",
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreate_SinVendorIDQuedaParaElCaller(t *testing.T) {
	repo := seedClients()
	uc := crm.NewClientUseCase(repo, nil)
	caller := &entity.User{ID: "vendedor-v", CompanyID: "empresa", Role: entity.RoleVendedor}
	scope := domain.SelfScope("empresa", "vendedor-v")

	client, err := uc.Create(context.Background(), caller, scope, dto.CreateClientRequest{Name: "Cliente nuevo"})

	require.NoError(t, err)
	assert.Equal(t, "vendedor-v", client.VendorID)
	assert.Equal(t, "lead", client.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// List — el alcance viaja a la query
// ──────────────────────────────────────────────────────────────────────────────

func TestList_VendedorSoloVeLosSuyos(t *testing.T) {
	uc := crm.NewClientUseCase(seedClients(), nil)

	out, err := uc.List(context.Background(), domain.SelfScope("empresa", "vendedor-v"), 50, 0)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "cli-v", out[0].ID)
}

func TestList_AdminVeTodosLosDeSuEmpresa(t *testing.T) {
	uc := crm.NewClientUseCase(seedClients(), nil)

	out, err := uc.List(context.Background(), domain.TenantScope("empresa"), 50, 0)

	require.NoError(t, err)
	assert.Len(t, out, 3)
}
