package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/catalog"
	"github.com/ventia/crm-api/internal/application/subscription"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
	"github.com/ventia/crm-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria: un store compartido entre subRepo, invRepo y el TxRunner.
// El "CAS" de UpdateFromStatus se emula igual que en Postgres: la escritura
// solo pasa si el estado guardado sigue siendo el esperado.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	subs     map[string]*entity.Subscription
	invoices map[string]*entity.Invoice
}

func newMemStore() *memStore {
	return &memStore{
		subs:     make(map[string]*entity.Subscription),
		invoices: make(map[string]*entity.Invoice),
	}
}

func cloneSub(s *entity.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	c := *s
	if s.PendingPlanID != nil {
		v := *s.PendingPlanID
		c.PendingPlanID = &v
	}
	if s.TrialEndsAt != nil {
		v := *s.TrialEndsAt
		c.TrialEndsAt = &v
	}
	if s.CancelledAt != nil {
		v := *s.CancelledAt
		c.CancelledAt = &v
	}
	return &c
}

func cloneInv(i *entity.Invoice) *entity.Invoice {
	if i == nil {
		return nil
	}
	c := *i
	if i.PaidAt != nil {
		v := *i.PaidAt
		c.PaidAt = &v
	}
	return &c
}

type memSubRepo struct{ store *memStore }

var _ repository.SubscriptionRepository = (*memSubRepo)(nil)

func (r *memSubRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	r.store.subs[sub.ID] = cloneSub(sub)
	return nil
}

func (r *memSubRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	return cloneSub(r.store.subs[id]), nil
}

func (r *memSubRepo) GetActiveByCompany(ctx context.Context, companyID string) (*entity.Subscription, error) {
	for _, s := range r.store.subs {
		if s.CompanyID == companyID && !s.IsTerminal() {
			return cloneSub(s), nil
		}
	}
	return nil, nil
}

func (r *memSubRepo) GetLastCancelledByCompany(ctx context.Context, companyID string) (*entity.Subscription, error) {
	var last *entity.Subscription
	for _, s := range r.store.subs {
		if s.CompanyID != companyID || s.Status != entity.SubscriptionCancelled || s.CancelledAt == nil {
			continue
		}
		if last == nil || s.CancelledAt.After(*last.CancelledAt) {
			last = s
		}
	}
	return cloneSub(last), nil
}

func (r *memSubRepo) GetForUpdate(ctx context.Context, id string) (*entity.Subscription, error) {
	return cloneSub(r.store.subs[id]), nil
}

func (r *memSubRepo) UpdateFromStatus(ctx context.Context, sub *entity.Subscription, expectedStatus string) error {
	current, ok := r.store.subs[sub.ID]
	if !ok || current.Status != expectedStatus {
		return domain.ErrConcurrentModification
	}
	r.store.subs[sub.ID] = cloneSub(sub)
	return nil
}

func (r *memSubRepo) FindDueForRollover(ctx context.Context, now time.Time, limit int) ([]*entity.Subscription, error) {
	var due []*entity.Subscription
	for _, s := range r.store.subs {
		if !s.IsTerminal() && !s.CurrentPeriodEnd.After(now) {
			due = append(due, cloneSub(s))
			if len(due) >= limit {
				break
			}
		}
	}
	return due, nil
}

type memInvoiceRepo struct{ store *memStore }

var _ repository.InvoiceRepository = (*memInvoiceRepo)(nil)

func (r *memInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	r.store.invoices[inv.ID] = cloneInv(inv)
	return nil
}

func (r *memInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return cloneInv(r.store.invoices[id]), nil
}

func (r *memInvoiceRepo) GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.Invoice, error) {
	inv := r.store.invoices[id]
	if inv == nil || inv.CompanyID != companyID {
		return nil, nil
	}
	return cloneInv(inv), nil
}

func (r *memInvoiceRepo) UpdateStatusFrom(ctx context.Context, inv *entity.Invoice, expectedStatus string) error {
	current, ok := r.store.invoices[inv.ID]
	if !ok || current.Status != expectedStatus {
		return domain.ErrConcurrentModification
	}
	r.store.invoices[inv.ID] = cloneInv(inv)
	return nil
}

func (r *memInvoiceRepo) List(ctx context.Context, companyID string, f repository.InvoiceFilters, limit, offset int) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.store.invoices {
		if inv.CompanyID == companyID {
			out = append(out, cloneInv(inv))
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) FindOverdue(ctx context.Context, companyID string, now time.Time) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.store.invoices {
		if inv.Status == entity.InvoicePending && inv.DueDate.Before(now) {
			out = append(out, cloneInv(inv))
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) FindUpcoming(ctx context.Context, companyID string, now time.Time, days int) ([]*entity.Invoice, error) {
	return nil, nil
}

func (r *memInvoiceRepo) Stats(ctx context.Context, companyID string, now time.Time) (*repository.InvoiceStats, error) {
	return &repository.InvoiceStats{Counts: map[string]int{}}, nil
}

type memTxRunner struct{ store *memStore }

func (t *memTxRunner) RunBilling(ctx context.Context, fn func(repository.SubscriptionRepository, repository.InvoiceRepository) error) error {
	return fn(&memSubRepo{store: t.store}, &memInvoiceRepo{store: t.store})
}

type memPlanRepo struct{ plans map[string]*entity.Plan }

func (r *memPlanRepo) Create(ctx context.Context, plan *entity.Plan) error { return nil }
func (r *memPlanRepo) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	return r.plans[id], nil
}
func (r *memPlanRepo) ListActive(ctx context.Context) ([]*entity.Plan, error) {
	var out []*entity.Plan
	for _, p := range r.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}
func (r *memPlanRepo) Update(ctx context.Context, plan *entity.Plan) error { return nil }
func (r *memPlanRepo) Deactivate(ctx context.Context, id string) error     { return nil }

type memUsageRepo struct{ users, clients, teams int }

func (r *memUsageRepo) CountUsers(ctx context.Context, companyID string) (int, error) {
	return r.users, nil
}
func (r *memUsageRepo) CountClients(ctx context.Context, companyID string) (int, error) {
	return r.clients, nil
}
func (r *memUsageRepo) CountTeams(ctx context.Context, companyID string) (int, error) {
	return r.teams, nil
}

type memAuditRepo struct{ entries []*entity.AuditLogEntry }

func (r *memAuditRepo) Insert(ctx context.Context, entry *entity.AuditLogEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}
func (r *memAuditRepo) Query(ctx context.Context, f repository.AuditFilters, limit, offset int) ([]*entity.AuditLogEntry, error) {
	return r.entries, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado del motor
// ──────────────────────────────────────────────────────────────────────────────

const empresa = "empresa-a"

var (
	planBarato = &entity.Plan{
		ID: "plan-barato", Name: "Starter", Price: decimal.NewFromInt(19),
		BillingCycle: entity.BillingCycleMonthly,
		MaxUsers:     3, MaxLeads: 500, MaxTeams: 1, Active: true, DisplayOrder: 1,
	}
	planCaro = &entity.Plan{
		ID: "plan-caro", Name: "Profesional", Price: decimal.NewFromInt(49),
		BillingCycle: entity.BillingCycleMonthly,
		MaxUsers:     15, MaxLeads: 5000, MaxTeams: 5, Active: true, DisplayOrder: 2,
	}
	planInactivo = &entity.Plan{
		ID: "plan-retirado", Name: "Legacy", Price: decimal.NewFromInt(9),
		BillingCycle: entity.BillingCycleMonthly, Active: false,
	}
)

type engine struct {
	uc    *subscription.UseCase
	store *memStore
	audit *memAuditRepo
	usage *memUsageRepo
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	store := newMemStore()
	auditRepo := &memAuditRepo{}
	usage := &memUsageRepo{}
	planRepo := &memPlanRepo{plans: map[string]*entity.Plan{
		planBarato.ID:   planBarato,
		planCaro.ID:     planCaro,
		planInactivo.ID: planInactivo,
	}}
	cat := catalog.NewPlanCatalog(planRepo, 60)
	recorder := audit.NewSyncRecorder(auditRepo, logger.Nop())
	uc := subscription.NewUseCase(
		&memTxRunner{store: store},
		&memSubRepo{store: store},
		usage,
		cat,
		recorder,
		subscription.BillingPolicy{
			TrialDays:             14,
			InvoiceRetryBudget:    3,
			ReactivationGraceDays: 30,
			InvoiceDueDays:        7,
		},
	)
	return &engine{uc: uc, store: store, audit: auditRepo, usage: usage}
}

// seedActive siembra una suscripción activa a mitad de período mensual.
func (e *engine) seedActive(planID string) *entity.Subscription {
	now := time.Now()
	sub := &entity.Subscription{
		ID:                 "sub-1",
		CompanyID:          empresa,
		PlanID:             planID,
		Status:             entity.SubscriptionActive,
		CurrentPeriodStart: now.AddDate(0, 0, -15),
		CurrentPeriodEnd:   now.AddDate(0, 0, 15),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	e.store.subs[sub.ID] = sub
	return sub
}

// ──────────────────────────────────────────────────────────────────────────────
// Trial
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateTrial_CreaSuscripcionEnPrueba(t *testing.T) {
	e := newEngine(t)

	sub, err := e.uc.CreateTrial(context.Background(), "admin-1", empresa, planBarato.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionTrialing, sub.Status)
	require.NotNil(t, sub.TrialEndsAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), *sub.TrialEndsAt, time.Minute)
	assert.Equal(t, sub.CurrentPeriodEnd, *sub.TrialEndsAt, "el primer período termina con el trial")
	require.Len(t, e.audit.entries, 1)
	assert.Equal(t, entity.AuditSubscriptionChange, e.audit.entries[0].Action)
}

func TestCreateTrial_SinPlanTomaElMasBarato(t *testing.T) {
	e := newEngine(t)

	sub, err := e.uc.CreateTrial(context.Background(), "admin-1", empresa, "")
	require.NoError(t, err)
	assert.Equal(t, planBarato.ID, sub.PlanID)
}

func TestCreateTrial_ConSuscripcionVigenteFalla(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)

	_, err := e.uc.CreateTrial(context.Background(), "admin-1", empresa, planBarato.ID)
	assert.ErrorIs(t, err, domain.ErrSubscriptionAlreadyExists)
}

func TestCreateTrial_PlanInactivoNoDisponible(t *testing.T) {
	e := newEngine(t)

	_, err := e.uc.CreateTrial(context.Background(), "admin-1", empresa, planInactivo.ID)
	assert.ErrorIs(t, err, domain.ErrPlanNotAvailable)
}

// ──────────────────────────────────────────────────────────────────────────────
// Upgrade / Downgrade
// ──────────────────────────────────────────────────────────────────────────────

func TestUpgrade_CambiaPlanYFacturaProrrateo(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)

	sub, err := e.uc.Upgrade(context.Background(), "admin-1", empresa, planCaro.ID)
	require.NoError(t, err)

	assert.Equal(t, planCaro.ID, sub.PlanID, "el upgrade es inmediato")
	assert.Nil(t, sub.PendingPlanID)

	require.Len(t, e.store.invoices, 1, "debe emitirse la factura prorrateada")
	var inv *entity.Invoice
	for _, i := range e.store.invoices {
		inv = i
	}
	delta := planCaro.Price.Sub(planBarato.Price)
	// Queda media ventana del período: el cargo es una fracción positiva del delta.
	assert.True(t, inv.Amount.IsPositive())
	assert.True(t, inv.Amount.LessThanOrEqual(delta), "el prorrateo nunca excede el delta completo")
	assert.Equal(t, entity.InvoicePending, inv.Status)
	assert.Equal(t, empresa, inv.CompanyID)
}

func TestUpgrade_HaciaPlanMasBaratoRechaza(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planCaro.ID)

	_, err := e.uc.Upgrade(context.Background(), "admin-1", empresa, planBarato.ID)
	assert.ErrorIs(t, err, domain.ErrNotAnUpgrade)

	// La fila queda intacta y no se emite factura.
	assert.Equal(t, planCaro.ID, e.store.subs["sub-1"].PlanID)
	assert.Empty(t, e.store.invoices)
}

func TestUpgrade_PisaDowngradePendiente(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planBarato.ID)
	pendiente := planBarato.ID
	sub.PendingPlanID = &pendiente

	updated, err := e.uc.Upgrade(context.Background(), "admin-1", empresa, planCaro.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.PendingPlanID, "el upgrade descarta el downgrade agendado")
}

func TestDowngrade_SoloAgendaElPlanPendiente(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planCaro.ID)

	sub, err := e.uc.Downgrade(context.Background(), "admin-1", empresa, planBarato.ID)
	require.NoError(t, err)

	assert.Equal(t, planCaro.ID, sub.PlanID, "el plan vigente no cambia hasta el cierre")
	require.NotNil(t, sub.PendingPlanID)
	assert.Equal(t, planBarato.ID, *sub.PendingPlanID)
	assert.Empty(t, e.store.invoices, "un downgrade no factura nada")
}

func TestDowngrade_HaciaPlanMasCaroRechaza(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)

	_, err := e.uc.Downgrade(context.Background(), "admin-1", empresa, planCaro.ID)
	assert.ErrorIs(t, err, domain.ErrNotADowngrade)
}

func TestDowngrade_AlMismoPlanRechaza(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)

	_, err := e.uc.Downgrade(context.Background(), "admin-1", empresa, planBarato.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación y reactivación
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_InmediataPasaACancelled(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)

	sub, err := e.uc.Cancel(context.Background(), "admin-1", empresa, true)
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionCancelled, sub.Status)
	require.NotNil(t, sub.CancelledAt)
}

func TestCancel_DiferidaSoloMarcaLaBandera(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)

	sub, err := e.uc.Cancel(context.Background(), "admin-1", empresa, false)
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionActive, sub.Status, "el acceso sigue hasta el cierre del período")
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Nil(t, sub.CancelledAt)
}

func TestCancel_SinSuscripcionVigenteFalla(t *testing.T) {
	e := newEngine(t)

	_, err := e.uc.Cancel(context.Background(), "admin-1", empresa, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReactivate_DentroDeLaVentanaDeGracia(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planBarato.ID)
	hace10dias := time.Now().AddDate(0, 0, -10)
	sub.Status = entity.SubscriptionCancelled
	sub.CancelledAt = &hace10dias

	updated, err := e.uc.Reactivate(context.Background(), "admin-1", empresa)
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionActive, updated.Status)
	assert.Nil(t, updated.CancelledAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), updated.CurrentPeriodEnd, time.Minute,
		"la reactivación abre un período nuevo, no revive el viejo")
}

func TestReactivate_FueraDeLaVentanaRechaza(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planBarato.ID)
	hace60dias := time.Now().AddDate(0, 0, -60)
	sub.Status = entity.SubscriptionCancelled
	sub.CancelledAt = &hace60dias

	_, err := e.uc.Reactivate(context.Background(), "admin-1", empresa)
	assert.True(t, domain.IsInvalidTransition(err), "pasada la gracia se exige suscripción nueva")
	assert.Equal(t, entity.SubscriptionCancelled, e.store.subs["sub-1"].Status, "la fila no se toca")
}

func TestReactivate_QuitaCancelAtPeriodEnd(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planBarato.ID)
	sub.CancelAtPeriodEnd = true

	updated, err := e.uc.Reactivate(context.Background(), "admin-1", empresa)
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionActive, updated.Status)
	assert.False(t, updated.CancelAtPeriodEnd)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pagos y mora
// ──────────────────────────────────────────────────────────────────────────────

func seedInvoice(e *engine, status string, attempts int) *entity.Invoice {
	inv := &entity.Invoice{
		ID:             "inv-1",
		SubscriptionID: "sub-1",
		CompanyID:      empresa,
		Amount:         planBarato.Price,
		DueDate:        time.Now().AddDate(0, 0, 7),
		Status:         status,
		AttemptCount:   attempts,
	}
	e.store.invoices[inv.ID] = inv
	return inv
}

func TestHandleInvoicePaid_ReactivaSuscripcionEnMora(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planBarato.ID)
	sub.Status = entity.SubscriptionPastDue
	seedInvoice(e, entity.InvoicePending, 0)

	err := e.uc.HandleInvoicePaid(context.Background(), "", "", "inv-1")
	require.NoError(t, err)

	inv := e.store.invoices["inv-1"]
	assert.Equal(t, entity.InvoicePaid, inv.Status)
	require.NotNil(t, inv.PaidAt, "PaidAt se setea si y solo si queda paid")
	assert.Equal(t, entity.SubscriptionActive, e.store.subs["sub-1"].Status,
		"el pago y la transición commitean juntos")
}

func TestHandleInvoicePaid_SobreActivaNoTransiciona(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)
	seedInvoice(e, entity.InvoicePending, 0)

	err := e.uc.HandleInvoicePaid(context.Background(), "", "", "inv-1")
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionActive, e.store.subs["sub-1"].Status)
	assert.Empty(t, e.audit.entries, "sin transición no hay entrada de cambio de suscripción")
}

func TestHandleInvoicePaid_FacturaTerminalEsInmutable(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)
	pagada := seedInvoice(e, entity.InvoicePaid, 0)
	cuando := time.Now().Add(-time.Hour)
	pagada.PaidAt = &cuando

	err := e.uc.HandleInvoicePaid(context.Background(), "", "", "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyFinalized)
	assert.Equal(t, cuando, *e.store.invoices["inv-1"].PaidAt, "el doble pago no toca la fila")
}

func TestHandleInvoiceFailed_BajoPresupuestoNoMueveLaSuscripcion(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)
	seedInvoice(e, entity.InvoicePending, 0)

	err := e.uc.HandleInvoiceFailed(context.Background(), "", "", "inv-1")
	require.NoError(t, err)

	assert.Equal(t, 1, e.store.invoices["inv-1"].AttemptCount)
	assert.Equal(t, entity.InvoiceFailed, e.store.invoices["inv-1"].Status)
	assert.Equal(t, entity.SubscriptionActive, e.store.subs["sub-1"].Status)
}

func TestHandleInvoiceFailed_PresupuestoAgotadoPasaAPastDue(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)
	seedInvoice(e, entity.InvoiceFailed, 2) // presupuesto = 3: este es el tercero

	err := e.uc.HandleInvoiceFailed(context.Background(), "", "", "inv-1")
	require.NoError(t, err)

	assert.Equal(t, 3, e.store.invoices["inv-1"].AttemptCount)
	assert.Equal(t, entity.SubscriptionPastDue, e.store.subs["sub-1"].Status)
}

func TestHandleInvoiceFailed_AgotadaEsTerminal(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planBarato.ID)
	sub.Status = entity.SubscriptionPastDue
	seedInvoice(e, entity.InvoiceFailed, 3) // presupuesto = 3: ya agotado

	err := e.uc.HandleInvoiceFailed(context.Background(), "", "", "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyFinalized)
	assert.Equal(t, 3, e.store.invoices["inv-1"].AttemptCount, "una agotada no acumula más intentos")
}

func TestHandleInvoicePaid_OtroTenantRechaza(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planBarato.ID)
	sub.Status = entity.SubscriptionPastDue
	seedInvoice(e, entity.InvoicePending, 0)

	// El aviso de pago de un admin de otra empresa no puede tocar la factura
	// ni mover la suscripción ajena.
	err := e.uc.HandleInvoicePaid(context.Background(), "admin-b", "empresa-b", "inv-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, entity.InvoicePending, e.store.invoices["inv-1"].Status)
	assert.Equal(t, entity.SubscriptionPastDue, e.store.subs["sub-1"].Status)
}

func TestHandleInvoiceFailed_OtroTenantRechaza(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)
	seedInvoice(e, entity.InvoicePending, 0)

	err := e.uc.HandleInvoiceFailed(context.Background(), "admin-b", "empresa-b", "inv-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 0, e.store.invoices["inv-1"].AttemptCount)
	assert.Equal(t, entity.InvoicePending, e.store.invoices["inv-1"].Status)
}

func TestHandleInvoicePaid_MismoTenantYGlobalPasan(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)
	seedInvoice(e, entity.InvoicePending, 0)

	// Mismo tenant del dueño de la factura.
	require.NoError(t, e.uc.HandleInvoicePaid(context.Background(), "admin-1", empresa, "inv-1"))

	// Alcance global ("" = super_admin) sobre otra factura.
	e.store.invoices["inv-2"] = &entity.Invoice{
		ID: "inv-2", SubscriptionID: "sub-1", CompanyID: empresa,
		Amount: planBarato.Price, DueDate: time.Now().AddDate(0, 0, 7),
		Status: entity.InvoicePending,
	}
	require.NoError(t, e.uc.HandleInvoicePaid(context.Background(), "root-1", "", "inv-2"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre de período (worker)
// ──────────────────────────────────────────────────────────────────────────────

func TestRollover_AplicaDowngradePendienteYFacturaRenovacion(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planCaro.ID)
	pendiente := planBarato.ID
	sub.PendingPlanID = &pendiente
	sub.CurrentPeriodEnd = time.Now().Add(-time.Hour) // período vencido

	n, err := e.uc.RolloverDuePeriods(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rolled := e.store.subs["sub-1"]
	assert.Equal(t, planBarato.ID, rolled.PlanID, "el downgrade entra recién en el cierre")
	assert.Nil(t, rolled.PendingPlanID)
	assert.True(t, rolled.CurrentPeriodEnd.After(time.Now()), "el período se corre hacia adelante")

	require.Len(t, e.store.invoices, 1)
	for _, inv := range e.store.invoices {
		assert.True(t, inv.Amount.Equal(planBarato.Price), "la renovación cobra el plan ya aplicado")
	}
}

func TestRollover_CancelAtPeriodEndCierraSinFacturar(t *testing.T) {
	e := newEngine(t)
	sub := e.seedActive(planBarato.ID)
	sub.CancelAtPeriodEnd = true
	sub.CurrentPeriodEnd = time.Now().Add(-time.Hour)

	n, err := e.uc.RolloverDuePeriods(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, entity.SubscriptionCancelled, e.store.subs["sub-1"].Status)
	require.NotNil(t, e.store.subs["sub-1"].CancelledAt)
	assert.Empty(t, e.store.invoices, "la cancelación al cierre no emite renovación")
}

func TestRollover_PeriodoVigenteNoSeToca(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID) // período vence en 15 días

	n, err := e.uc.RolloverDuePeriods(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, e.store.invoices)
}

// ──────────────────────────────────────────────────────────────────────────────
// Uso y límites
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckLimit_ConCupoPermite(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)
	e.usage.users = 2 // límite 3

	assert.NoError(t, e.uc.CheckLimit(context.Background(), empresa, entity.MetricUsers))
}

func TestCheckLimit_EnElLimiteRechaza(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planBarato.ID)
	e.usage.users = 3 // límite 3

	err := e.uc.CheckLimit(context.Background(), empresa, entity.MetricUsers)
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
}

func TestGetUsage_ReportaUsoContraLimites(t *testing.T) {
	e := newEngine(t)
	e.seedActive(planCaro.ID)
	e.usage.users, e.usage.clients, e.usage.teams = 4, 120, 2

	usage, err := e.uc.GetUsage(context.Background(), empresa)
	require.NoError(t, err)

	assert.Equal(t, entity.UsageMetric{Used: 4, Limit: 15}, usage[entity.MetricUsers])
	assert.Equal(t, entity.UsageMetric{Used: 120, Limit: 5000}, usage[entity.MetricLeads])
	assert.Equal(t, entity.UsageMetric{Used: 2, Limit: 5}, usage[entity.MetricTeams])
}
