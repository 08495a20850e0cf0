package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// SubscriptionRepository puerto de persistencia para Subscription.
//
// Las transiciones de estado corren dentro de una transacción (ver
// SubscriptionTxRunner): GetForUpdate bloquea la fila y UpdateFromStatus
// actúa como compare-and-swap sobre el estado actual — si otra operación
// ganó la carrera, el caller recibe domain.ErrConcurrentModification.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	GetByID(ctx context.Context, id string) (*entity.Subscription, error)
	// GetActiveByCompany devuelve la suscripción no terminal de la empresa, o nil.
	GetActiveByCompany(ctx context.Context, companyID string) (*entity.Subscription, error)
	// GetLastCancelledByCompany la cancelada más reciente (para reactivación).
	GetLastCancelledByCompany(ctx context.Context, companyID string) (*entity.Subscription, error)
	// GetForUpdate obtiene la fila con bloqueo (SELECT ... FOR UPDATE).
	// Fuera de una transacción se comporta como GetByID.
	GetForUpdate(ctx context.Context, id string) (*entity.Subscription, error)
	// UpdateFromStatus persiste sub completo solo si el estado en DB sigue
	// siendo expectedStatus; si no, domain.ErrConcurrentModification.
	UpdateFromStatus(ctx context.Context, sub *entity.Subscription, expectedStatus string) error
	// FindDueForRollover suscripciones vigentes cuyo período cerró antes de now.
	FindDueForRollover(ctx context.Context, now time.Time, limit int) ([]*entity.Subscription, error)
}

// InvoiceFilters filtros de listado de facturas.
type InvoiceFilters struct {
	Status string
	From   *time.Time
	To     *time.Time
}

// InvoiceStats agregados de facturación de una empresa.
type InvoiceStats struct {
	PaidTotal    decimal.Decimal
	PendingTotal decimal.Decimal
	OverdueTotal decimal.Decimal
	Counts       map[string]int
}

// InvoiceRepository puerto de persistencia para Invoice.
// UpdateStatusFrom es un CAS sobre el estado: protege la inmutabilidad de
// los estados terminales frente a escritores concurrentes.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.Invoice, error)
	UpdateStatusFrom(ctx context.Context, inv *entity.Invoice, expectedStatus string) error
	List(ctx context.Context, companyID string, f InvoiceFilters, limit, offset int) ([]*entity.Invoice, error)
	FindOverdue(ctx context.Context, companyID string, now time.Time) ([]*entity.Invoice, error)
	FindUpcoming(ctx context.Context, companyID string, now time.Time, days int) ([]*entity.Invoice, error)
	Stats(ctx context.Context, companyID string, now time.Time) (*InvoiceStats, error)
}
