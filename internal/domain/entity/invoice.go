package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura. paid y cancelled son terminales e inmutables;
// failed es terminal una vez agotado el presupuesto de reintentos (lo decide
// el motor de suscripciones, no el ledger).
const (
	InvoicePending   = "pending"
	InvoicePaid      = "paid"
	InvoiceFailed    = "failed"
	InvoiceCancelled = "cancelled"
)

// Invoice cargo de un período de facturación y su estado de liquidación.
// Amount y DueDate son fijos desde la creación: una corrección se hace
// cancelando y creando una factura nueva, nunca editando en sitio.
type Invoice struct {
	ID             string
	SubscriptionID string
	CompanyID      string // siempre igual al company_id de la suscripción
	Amount         decimal.Decimal
	DueDate        time.Time
	Status         string     // ver constantes Invoice*
	PaidAt         *time.Time // seteado si y solo si Status = paid
	AttemptCount   int
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal indica si la factura ya no admite cambios de estado.
func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoicePaid || i.Status == InvoiceCancelled
}
