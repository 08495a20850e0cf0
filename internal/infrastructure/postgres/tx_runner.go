package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ventia/crm-api/internal/application/subscription"
	"github.com/ventia/crm-api/internal/domain/repository"
)

var _ subscription.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunBilling inicia una transacción con repos de suscripción y factura
// atados a ella y hace Commit o Rollback. Las transiciones de suscripción y
// sus facturas confirman juntas o no confirman.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	subRepo repository.SubscriptionRepository,
	invRepo repository.InvoiceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	subRepo := NewSubscriptionRepository(tx)
	invRepo := NewInvoiceRepository(tx)

	if err := fn(subRepo, invRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
