package subscription

import (
	"context"

	"github.com/ventia/crm-api/internal/domain/repository"
)

// TxRunner ejecuta una función con repos de suscripción y factura atados a
// la misma transacción. Una transición de estado y su factura asociada
// commitean juntas: si el alta de la factura falla, la transición no queda
// confirmada.
type TxRunner interface {
	RunBilling(ctx context.Context, fn func(
		subRepo repository.SubscriptionRepository,
		invRepo repository.InvoiceRepository,
	) error) error
}

// BillingPolicy valores de política del ciclo de vida (configurables, no
// constantes en código).
type BillingPolicy struct {
	TrialDays             int
	InvoiceRetryBudget    int // intentos fallidos antes de past_due
	ReactivationGraceDays int // ventana para reactivar una cancelada
	InvoiceDueDays        int // plazo de pago de facturas de renovación
}
