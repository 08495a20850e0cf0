package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

// InvoiceUseCase operaciones del ledger de facturas que no transicionan la
// suscripción: alta manual, cancelación, listados y agregados. markPaid y
// markFailed viven en el motor de suscripciones porque arrastran estado.
//
// Monto y vencimiento son fijos desde la creación: una corrección se modela
// cancelando la factura y creando otra, preservando el rastro de auditoría.
type InvoiceUseCase struct {
	invRepo  repository.InvoiceRepository
	subRepo  repository.SubscriptionRepository
	recorder *audit.Recorder
}

// NewInvoiceUseCase construye el caso de uso del ledger.
func NewInvoiceUseCase(invRepo repository.InvoiceRepository, subRepo repository.SubscriptionRepository, recorder *audit.Recorder) *InvoiceUseCase {
	return &InvoiceUseCase{invRepo: invRepo, subRepo: subRepo, recorder: recorder}
}

// Create alta manual de una factura (operadores autorizados). El tenant de
// la factura siempre es el de su suscripción, nunca el del request.
// actorCompanyID vacío significa alcance global (super_admin).
func (uc *InvoiceUseCase) Create(ctx context.Context, actorID, actorCompanyID string, in dto.CreateInvoiceRequest) (*entity.Invoice, error) {
	if in.SubscriptionID == "" || !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	sub, err := uc.subRepo.GetByID(ctx, in.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	if actorCompanyID != "" && sub.CompanyID != actorCompanyID {
		return nil, domain.ErrForbidden
	}
	now := time.Now()
	inv := &entity.Invoice{
		ID:             uuid.New().String(),
		SubscriptionID: sub.ID,
		CompanyID:      sub.CompanyID,
		Amount:         in.Amount,
		DueDate:        in.DueDate,
		Status:         entity.InvoicePending,
		Description:    in.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.invRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	uc.recorder.Record(&entity.AuditLogEntry{
		UserID:     &actorID,
		CompanyID:  inv.CompanyID,
		Action:     entity.AuditInvoiceChange,
		EntityType: "invoice",
		EntityID:   inv.ID,
		Details:    map[string]any{"change": "created", "amount": inv.Amount.String()},
	})
	return inv, nil
}

// Cancel cancela una factura pendiente o fallida no agotada. Una factura ya
// terminal devuelve ErrInvoiceAlreadyFinalized y queda intacta.
// actorCompanyID vacío significa alcance global (super_admin).
func (uc *InvoiceUseCase) Cancel(ctx context.Context, actorID, actorCompanyID, invoiceID string) (*entity.Invoice, error) {
	inv, err := uc.invRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if actorCompanyID != "" && inv.CompanyID != actorCompanyID {
		return nil, domain.ErrForbidden
	}
	if inv.IsTerminal() {
		return nil, domain.ErrInvoiceAlreadyFinalized
	}
	expected := inv.Status
	inv.Status = entity.InvoiceCancelled
	inv.UpdatedAt = time.Now()
	if err := uc.invRepo.UpdateStatusFrom(ctx, inv, expected); err != nil {
		return nil, err
	}
	uc.recorder.Record(&entity.AuditLogEntry{
		UserID:     &actorID,
		CompanyID:  inv.CompanyID,
		Action:     entity.AuditInvoiceChange,
		EntityType: "invoice",
		EntityID:   inv.ID,
		Details:    map[string]any{"change": "cancelled", "previous_status": expected},
	})
	return inv, nil
}

// Get obtiene una factura verificando el tenant del caller.
func (uc *InvoiceUseCase) Get(ctx context.Context, invoiceID, companyID string) (*entity.Invoice, error) {
	inv, err := uc.invRepo.GetByIDAndCompany(ctx, invoiceID, companyID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// List facturas del tenant con filtros y paginación.
func (uc *InvoiceUseCase) List(ctx context.Context, companyID string, f repository.InvoiceFilters, limit, offset int) ([]*entity.Invoice, error) {
	return uc.invRepo.List(ctx, companyID, f, limit, offset)
}

// FindOverdue pendientes con vencimiento anterior a hoy.
func (uc *InvoiceUseCase) FindOverdue(ctx context.Context, companyID string) ([]*entity.Invoice, error) {
	return uc.invRepo.FindOverdue(ctx, companyID, time.Now())
}

// FindUpcoming pendientes que vencen dentro de days días.
func (uc *InvoiceUseCase) FindUpcoming(ctx context.Context, companyID string, days int) ([]*entity.Invoice, error) {
	return uc.invRepo.FindUpcoming(ctx, companyID, time.Now(), days)
}

// Stats agregados de facturación del tenant.
func (uc *InvoiceUseCase) Stats(ctx context.Context, companyID string) (*repository.InvoiceStats, error) {
	return uc.invRepo.Stats(ctx, companyID, time.Now())
}
