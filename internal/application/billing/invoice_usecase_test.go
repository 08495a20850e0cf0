package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/billing"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
	"github.com/ventia/crm-api/pkg/logger"
)

type fakeInvoiceRepo struct {
	invoices map[string]*entity.Invoice
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	c := *inv
	r.invoices[inv.ID] = &c
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	c := *inv
	return &c, nil
}

// companyID vacío = alcance global, igual que la implementación Postgres.
func (r *fakeInvoiceRepo) GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || (companyID != "" && inv.CompanyID != companyID) {
		return nil, nil
	}
	c := *inv
	return &c, nil
}

func (r *fakeInvoiceRepo) UpdateStatusFrom(ctx context.Context, inv *entity.Invoice, expectedStatus string) error {
	current, ok := r.invoices[inv.ID]
	if !ok || current.Status != expectedStatus {
		return domain.ErrConcurrentModification
	}
	c := *inv
	r.invoices[inv.ID] = &c
	return nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, companyID string, f repository.InvoiceFilters, limit, offset int) ([]*entity.Invoice, error) {
	return nil, nil
}

func (r *fakeInvoiceRepo) FindOverdue(ctx context.Context, companyID string, now time.Time) ([]*entity.Invoice, error) {
	return nil, nil
}

func (r *fakeInvoiceRepo) FindUpcoming(ctx context.Context, companyID string, now time.Time, days int) ([]*entity.Invoice, error) {
	return nil, nil
}

func (r *fakeInvoiceRepo) Stats(ctx context.Context, companyID string, now time.Time) (*repository.InvoiceStats, error) {
	return &repository.InvoiceStats{Counts: map[string]int{}}, nil
}

type fakeSubRepo struct {
	subs map[string]*entity.Subscription
}

func (r *fakeSubRepo) Create(ctx context.Context, sub *entity.Subscription) error { return nil }
func (r *fakeSubRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	return r.subs[id], nil
}
func (r *fakeSubRepo) GetActiveByCompany(ctx context.Context, companyID string) (*entity.Subscription, error) {
	return nil, nil
}
func (r *fakeSubRepo) GetLastCancelledByCompany(ctx context.Context, companyID string) (*entity.Subscription, error) {
	return nil, nil
}
func (r *fakeSubRepo) GetForUpdate(ctx context.Context, id string) (*entity.Subscription, error) {
	return r.subs[id], nil
}
func (r *fakeSubRepo) UpdateFromStatus(ctx context.Context, sub *entity.Subscription, expectedStatus string) error {
	return nil
}
func (r *fakeSubRepo) FindDueForRollover(ctx context.Context, now time.Time, limit int) ([]*entity.Subscription, error) {
	return nil, nil
}

type nullAuditRepo struct{}

func (nullAuditRepo) Insert(ctx context.Context, entry *entity.AuditLogEntry) error { return nil }
func (nullAuditRepo) Query(ctx context.Context, f repository.AuditFilters, limit, offset int) ([]*entity.AuditLogEntry, error) {
	return nil, nil
}

func newLedger() (*billing.InvoiceUseCase, *fakeInvoiceRepo) {
	invRepo := &fakeInvoiceRepo{invoices: make(map[string]*entity.Invoice)}
	subRepo := &fakeSubRepo{subs: map[string]*entity.Subscription{
		"sub-a": {ID: "sub-a", CompanyID: "empresa-a", PlanID: "pro", Status: entity.SubscriptionActive},
	}}
	uc := billing.NewInvoiceUseCase(invRepo, subRepo, audit.NewSyncRecorder(nullAuditRepo{}, logger.Nop()))
	return uc, invRepo
}

func seed(repo *fakeInvoiceRepo, status string) *entity.Invoice {
	inv := &entity.Invoice{
		ID:             "inv-1",
		SubscriptionID: "sub-a",
		CompanyID:      "empresa-a",
		Amount:         decimal.NewFromInt(49),
		DueDate:        time.Now().AddDate(0, 0, 7),
		Status:         status,
	}
	repo.invoices[inv.ID] = inv
	return inv
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta manual
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_TomaElTenantDeLaSuscripcion(t *testing.T) {
	uc, _ := newLedger()

	inv, err := uc.Create(context.Background(), "admin-1", "empresa-a", dto.CreateInvoiceRequest{
		SubscriptionID: "sub-a",
		Amount:         decimal.NewFromInt(10),
		DueDate:        time.Now().AddDate(0, 0, 7),
		Description:    "ajuste manual",
	})
	require.NoError(t, err)

	assert.Equal(t, "empresa-a", inv.CompanyID, "el tenant viene de la suscripción, no del request")
	assert.Equal(t, entity.InvoicePending, inv.Status)
	assert.NotEmpty(t, inv.ID)
}

func TestCreate_OtroTenantRechaza(t *testing.T) {
	uc, _ := newLedger()

	_, err := uc.Create(context.Background(), "admin-1", "empresa-b", dto.CreateInvoiceRequest{
		SubscriptionID: "sub-a",
		Amount:         decimal.NewFromInt(10),
		DueDate:        time.Now().AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreate_AlcanceGlobalCruzaTenants(t *testing.T) {
	uc, _ := newLedger()

	// actorCompanyID vacío es el alcance del super_admin.
	_, err := uc.Create(context.Background(), "root-1", "", dto.CreateInvoiceRequest{
		SubscriptionID: "sub-a",
		Amount:         decimal.NewFromInt(10),
		DueDate:        time.Now().AddDate(0, 0, 7),
	})
	assert.NoError(t, err)
}

func TestCreate_MontoNoPositivoRechaza(t *testing.T) {
	uc, _ := newLedger()

	_, err := uc.Create(context.Background(), "admin-1", "empresa-a", dto.CreateInvoiceRequest{
		SubscriptionID: "sub-a",
		Amount:         decimal.Zero,
		DueDate:        time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_SuscripcionInexistente(t *testing.T) {
	uc, _ := newLedger()

	_, err := uc.Create(context.Background(), "admin-1", "empresa-a", dto.CreateInvoiceRequest{
		SubscriptionID: "sub-fantasma",
		Amount:         decimal.NewFromInt(10),
		DueDate:        time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación e inmutabilidad terminal
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_PendientePasaACancelled(t *testing.T) {
	uc, repo := newLedger()
	seed(repo, entity.InvoicePending)

	inv, err := uc.Cancel(context.Background(), "admin-1", "empresa-a", "inv-1")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceCancelled, inv.Status)
}

func TestCancel_PagadaEsInmutable(t *testing.T) {
	uc, repo := newLedger()
	seed(repo, entity.InvoicePaid)

	_, err := uc.Cancel(context.Background(), "admin-1", "empresa-a", "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyFinalized)
	assert.Equal(t, entity.InvoicePaid, repo.invoices["inv-1"].Status, "la fila terminal no se toca")
}

func TestCancel_CanceladaEsInmutable(t *testing.T) {
	uc, repo := newLedger()
	seed(repo, entity.InvoiceCancelled)

	_, err := uc.Cancel(context.Background(), "admin-1", "empresa-a", "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyFinalized)
}

func TestCancel_OtroTenantRechazaAntesDeRevelarEstado(t *testing.T) {
	uc, repo := newLedger()
	seed(repo, entity.InvoicePaid)

	// El actor de otra empresa recibe forbidden, no el detalle de inmutabilidad.
	_, err := uc.Cancel(context.Background(), "admin-1", "empresa-b", "inv-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas con tenant
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_FacturaDeOtraEmpresaEs404(t *testing.T) {
	uc, repo := newLedger()
	seed(repo, entity.InvoicePending)

	inv, err := uc.Get(context.Background(), "inv-1", "empresa-a")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", inv.ID)

	// Para el tenant equivocado la factura simplemente no existe.
	_, err = uc.Get(context.Background(), "inv-1", "empresa-b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_AlcanceGlobalVeCualquierTenant(t *testing.T) {
	uc, repo := newLedger()
	seed(repo, entity.InvoicePending)

	// super_admin opera con tenant vacío y ve facturas de cualquier empresa.
	inv, err := uc.Get(context.Background(), "inv-1", "")
	require.NoError(t, err)
	assert.Equal(t, "empresa-a", inv.CompanyID)
}
