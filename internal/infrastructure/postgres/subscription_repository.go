package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

const subscriptionColumns = `id, company_id, plan_id, pending_plan_id, status, trial_ends_at,
	current_period_start, current_period_end, cancel_at_period_end, cancelled_at, created_at, updated_at`

// SubscriptionRepo implementación del puerto SubscriptionRepository sobre PostgreSQL.
// El índice único parcial sobre (company_id) WHERE status IN (no terminales)
// respalda en DB la invariante de una sola suscripción vigente por empresa.
type SubscriptionRepo struct {
	db DB
}

// NewSubscriptionRepository construye el adaptador de persistencia para suscripciones.
func NewSubscriptionRepository(db DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// Create persiste una nueva suscripción.
func (r *SubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, company_id, plan_id, pending_plan_id, status, trial_ends_at,
			current_period_start, current_period_end, cancel_at_period_end, cancelled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.CompanyID, sub.PlanID, sub.PendingPlanID, sub.Status, sub.TrialEndsAt,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd, sub.CancelledAt,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSubscriptionAlreadyExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetByID obtiene una suscripción por ID.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	return r.scanOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
}

// GetActiveByCompany devuelve la suscripción no terminal de la empresa, o nil.
func (r *SubscriptionRepo) GetActiveByCompany(ctx context.Context, companyID string) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE company_id = $1 AND status IN ($2, $3, $4) LIMIT 1`
	return r.scanOne(ctx, query, companyID,
		entity.SubscriptionTrialing, entity.SubscriptionActive, entity.SubscriptionPastDue)
}

// GetLastCancelledByCompany la cancelada más reciente (ventana de reactivación).
func (r *SubscriptionRepo) GetLastCancelledByCompany(ctx context.Context, companyID string) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE company_id = $1 AND status = $2 ORDER BY cancelled_at DESC NULLS LAST LIMIT 1`
	return r.scanOne(ctx, query, companyID, entity.SubscriptionCancelled)
}

// GetForUpdate obtiene la fila con bloqueo de fila. Solo tiene efecto dentro
// de una transacción del TxRunner.
func (r *SubscriptionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Subscription, error) {
	return r.scanOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, id)
}

// UpdateFromStatus persiste la suscripción solo si el estado en DB sigue
// siendo expectedStatus (CAS). Cero filas afectadas = otra operación ganó la
// carrera y el caller recibe ErrConcurrentModification.
func (r *SubscriptionRepo) UpdateFromStatus(ctx context.Context, sub *entity.Subscription, expectedStatus string) error {
	query := `
		UPDATE subscriptions SET plan_id = $2, pending_plan_id = $3, status = $4, trial_ends_at = $5,
			current_period_start = $6, current_period_end = $7, cancel_at_period_end = $8,
			cancelled_at = $9, updated_at = $10
		WHERE id = $1 AND status = $11`
	tag, err := r.db.Exec(ctx, query,
		sub.ID, sub.PlanID, sub.PendingPlanID, sub.Status, sub.TrialEndsAt,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.CancelledAt, sub.UpdatedAt, expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// FindDueForRollover suscripciones vigentes con período vencido antes de now.
func (r *SubscriptionRepo) FindDueForRollover(ctx context.Context, now time.Time, limit int) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE status IN ($1, $2, $3) AND current_period_end <= $4
		ORDER BY current_period_end LIMIT $5`
	rows, err := r.db.Query(ctx, query,
		entity.SubscriptionTrialing, entity.SubscriptionActive, entity.SubscriptionPastDue, now, limit)
	if err != nil {
		return nil, fmt.Errorf("find due for rollover: %w", err)
	}
	defer rows.Close()
	var list []*entity.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SubscriptionRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Subscription, error) {
	s, err := scanSubscription(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

func scanSubscription(row pgx.Row) (*entity.Subscription, error) {
	var s entity.Subscription
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.PlanID, &s.PendingPlanID, &s.Status, &s.TrialEndsAt,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.CancelledAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
