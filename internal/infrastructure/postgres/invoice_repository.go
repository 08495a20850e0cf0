package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, subscription_id, company_id, amount, due_date, status, paid_at, attempt_count, description, created_at, updated_at`

// InvoiceRepo implementación del puerto InvoiceRepository sobre PostgreSQL.
type InvoiceRepo struct {
	db DB
}

// NewInvoiceRepository construye el adaptador de persistencia para facturas.
func NewInvoiceRepository(db DB) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

// Create persiste una nueva factura. El company_id debe ser el de la
// suscripción (lo respalda también un trigger/constraint en la migración).
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (id, subscription_id, company_id, amount, due_date, status, paid_at, attempt_count, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.Exec(ctx, query,
		inv.ID, inv.SubscriptionID, inv.CompanyID, inv.Amount, inv.DueDate, inv.Status,
		inv.PaidAt, inv.AttemptCount, inv.Description, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID (uso interno del motor).
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.scanOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetByIDAndCompany obtiene una factura dentro del tenant del caller.
// companyID vacío no restringe (alcance global).
func (r *InvoiceRepo) GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.Invoice, error) {
	if companyID == "" {
		return r.GetByID(ctx, id)
	}
	return r.scanOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND company_id = $2`, id, companyID)
}

// UpdateStatusFrom CAS sobre el estado: protege la inmutabilidad de los
// estados terminales frente a escritores concurrentes.
func (r *InvoiceRepo) UpdateStatusFrom(ctx context.Context, inv *entity.Invoice, expectedStatus string) error {
	query := `
		UPDATE invoices SET status = $2, paid_at = $3, attempt_count = $4, updated_at = $5
		WHERE id = $1 AND status = $6`
	tag, err := r.db.Exec(ctx, query,
		inv.ID, inv.Status, inv.PaidAt, inv.AttemptCount, inv.UpdatedAt, expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// List facturas del tenant, filtradas y paginadas. companyID vacío no
// restringe (alcance global).
func (r *InvoiceRepo) List(ctx context.Context, companyID string, f repository.InvoiceFilters, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	var args []any
	if companyID != "" {
		args = append(args, companyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND due_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND due_date <= $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY due_date DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.scanList(ctx, query, args...)
}

// FindOverdue pendientes con vencimiento anterior a now.
func (r *InvoiceRepo) FindOverdue(ctx context.Context, companyID string, now time.Time) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = $1 AND due_date < $2`
	args := []any{entity.InvoicePending, now}
	if companyID != "" {
		args = append(args, companyID)
		query += " AND company_id = $3"
	}
	query += " ORDER BY due_date"
	return r.scanList(ctx, query, args...)
}

// FindUpcoming pendientes que vencen entre now y now+days.
func (r *InvoiceRepo) FindUpcoming(ctx context.Context, companyID string, now time.Time, days int) ([]*entity.Invoice, error) {
	until := now.AddDate(0, 0, days)
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = $1 AND due_date >= $2 AND due_date <= $3`
	args := []any{entity.InvoicePending, now, until}
	if companyID != "" {
		args = append(args, companyID)
		query += " AND company_id = $4"
	}
	query += " ORDER BY due_date"
	return r.scanList(ctx, query, args...)
}

// Stats agregados de facturación del tenant. companyID vacío agrega sobre
// todas las empresas (alcance global).
func (r *InvoiceRepo) Stats(ctx context.Context, companyID string, now time.Time) (*repository.InvoiceStats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending' AND due_date < $2), 0),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM invoices WHERE ($1 = '' OR company_id = $1)`
	var stats repository.InvoiceStats
	var paid, pending, failed, cancelled int
	var paidTotal, pendingTotal, overdueTotal decimal.Decimal
	err := r.db.QueryRow(ctx, query, companyID, now).Scan(
		&paidTotal, &pendingTotal, &overdueTotal, &paid, &pending, &failed, &cancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	stats.PaidTotal = paidTotal
	stats.PendingTotal = pendingTotal
	stats.OverdueTotal = overdueTotal
	stats.Counts = map[string]int{
		entity.InvoicePaid:      paid,
		entity.InvoicePending:   pending,
		entity.InvoiceFailed:    failed,
		entity.InvoiceCancelled: cancelled,
	}
	return &stats, nil
}

func (r *InvoiceRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) scanList(ctx context.Context, query string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.SubscriptionID, &inv.CompanyID, &inv.Amount, &inv.DueDate, &inv.Status,
		&inv.PaidAt, &inv.AttemptCount, &inv.Description, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
