package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/catalog"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

// UseCase motor del ciclo de vida de suscripciones. Es el único camino para
// mutar el estado de una suscripción: toda transición corre dentro de una
// transacción con la fila bloqueada y un CAS sobre el estado actual, de modo
// que el perdedor de una carrera recibe ErrConcurrentModification en lugar
// de dejar un estado combinado inconsistente.
type UseCase struct {
	tx       TxRunner
	subRepo  repository.SubscriptionRepository
	usage    repository.UsageRepository
	catalog  *catalog.PlanCatalog
	recorder *audit.Recorder
	policy   BillingPolicy
}

// NewUseCase construye el motor de suscripciones.
func NewUseCase(tx TxRunner, subRepo repository.SubscriptionRepository, usage repository.UsageRepository, cat *catalog.PlanCatalog, recorder *audit.Recorder, policy BillingPolicy) *UseCase {
	return &UseCase{tx: tx, subRepo: subRepo, usage: usage, catalog: cat, recorder: recorder, policy: policy}
}

// GetActive devuelve la suscripción vigente de la empresa, o nil.
func (uc *UseCase) GetActive(ctx context.Context, companyID string) (*entity.Subscription, error) {
	return uc.subRepo.GetActiveByCompany(ctx, companyID)
}

// CreateTrial crea la suscripción de prueba de una empresa. PlanID vacío
// toma el plan activo más económico. Falla con ErrSubscriptionAlreadyExists
// si ya existe una suscripción no terminal.
func (uc *UseCase) CreateTrial(ctx context.Context, actorID, companyID, planID string) (*entity.Subscription, error) {
	existing, err := uc.subRepo.GetActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSubscriptionAlreadyExists
	}

	var plan *entity.Plan
	if planID == "" {
		plan, err = uc.catalog.Cheapest(ctx)
	} else {
		plan, err = uc.catalog.GetForNewSubscription(ctx, planID)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	trialEnd := now.AddDate(0, 0, uc.policy.TrialDays)
	sub := &entity.Subscription{
		ID:                 uuid.New().String(),
		CompanyID:          companyID,
		PlanID:             plan.ID,
		Status:             entity.SubscriptionTrialing,
		TrialEndsAt:        &trialEnd,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	uc.auditChange(actorID, sub, "", entity.SubscriptionTrialing, map[string]any{"plan_id": plan.ID})
	return sub, nil
}

// Upgrade cambia el plan de inmediato. Rechaza con ErrNotAnUpgrade si el
// precio del destino no es estrictamente mayor. Programa una factura
// prorrateada por los días restantes del período en la misma transacción.
func (uc *UseCase) Upgrade(ctx context.Context, actorID, companyID, newPlanID string) (*entity.Subscription, error) {
	sub, err := uc.requireActive(ctx, companyID)
	if err != nil {
		return nil, err
	}
	cmp, err := uc.catalog.Compare(ctx, sub.PlanID, newPlanID)
	if err != nil {
		return nil, err
	}
	if !cmp.IsUpgrade {
		return nil, domain.ErrNotAnUpgrade
	}
	newPlan, err := uc.catalog.GetForNewSubscription(ctx, newPlanID)
	if err != nil {
		return nil, err
	}

	oldPlanID := sub.PlanID
	var updated *entity.Subscription
	err = uc.tx.RunBilling(ctx, func(subRepo repository.SubscriptionRepository, invRepo repository.InvoiceRepository) error {
		locked, err := subRepo.GetForUpdate(ctx, sub.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.IsTerminal() {
			return domain.ErrConcurrentModification
		}
		expected := locked.Status
		now := time.Now()
		locked.PlanID = newPlan.ID
		locked.PendingPlanID = nil // un upgrade pisa cualquier downgrade pendiente
		locked.UpdatedAt = now
		if err := subRepo.UpdateFromStatus(ctx, locked, expected); err != nil {
			return err
		}
		// Factura prorrateada: delta de precio por la fracción restante del período.
		amount := prorate(cmp.PriceDelta, locked.CurrentPeriodStart, locked.CurrentPeriodEnd, now)
		if amount.IsPositive() {
			inv := &entity.Invoice{
				ID:             uuid.New().String(),
				SubscriptionID: locked.ID,
				CompanyID:      locked.CompanyID,
				Amount:         amount,
				DueDate:        now.AddDate(0, 0, uc.policy.InvoiceDueDays),
				Status:         entity.InvoicePending,
				Description:    fmt.Sprintf("prorrateo upgrade a %s", newPlan.Name),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := invRepo.Create(ctx, inv); err != nil {
				return err
			}
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.auditChange(actorID, updated, updated.Status, updated.Status, map[string]any{
		"change": "upgrade", "old_plan_id": oldPlanID, "new_plan_id": newPlan.ID,
	})
	return updated, nil
}

// Downgrade registra el plan destino como pendiente; el plan vigente y sus
// límites siguen en vigor hasta el cierre del período, donde el rollover lo
// aplica de forma atómica. Rechaza con ErrNotADowngrade si el destino cuesta
// estrictamente más (precio igual es clase downgrade).
func (uc *UseCase) Downgrade(ctx context.Context, actorID, companyID, newPlanID string) (*entity.Subscription, error) {
	sub, err := uc.requireActive(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if sub.PlanID == newPlanID {
		return nil, domain.ErrInvalidInput
	}
	cmp, err := uc.catalog.Compare(ctx, sub.PlanID, newPlanID)
	if err != nil {
		return nil, err
	}
	if cmp.IsUpgrade {
		return nil, domain.ErrNotADowngrade
	}
	newPlan, err := uc.catalog.GetForNewSubscription(ctx, newPlanID)
	if err != nil {
		return nil, err
	}

	var updated *entity.Subscription
	err = uc.tx.RunBilling(ctx, func(subRepo repository.SubscriptionRepository, _ repository.InvoiceRepository) error {
		locked, err := subRepo.GetForUpdate(ctx, sub.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.IsTerminal() {
			return domain.ErrConcurrentModification
		}
		expected := locked.Status
		locked.PendingPlanID = &newPlan.ID
		locked.UpdatedAt = time.Now()
		if err := subRepo.UpdateFromStatus(ctx, locked, expected); err != nil {
			return err
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.auditChange(actorID, updated, updated.Status, updated.Status, map[string]any{
		"change": "downgrade_scheduled", "pending_plan_id": newPlan.ID,
	})
	return updated, nil
}

// Cancel cancela la suscripción vigente. immediate=true la lleva a cancelled
// ya; immediate=false marca cancel_at_period_end y el rollover la cierra al
// vencer el período sin renovación.
func (uc *UseCase) Cancel(ctx context.Context, actorID, companyID string, immediate bool) (*entity.Subscription, error) {
	sub, err := uc.requireActive(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var updated *entity.Subscription
	var fromStatus string
	err = uc.tx.RunBilling(ctx, func(subRepo repository.SubscriptionRepository, _ repository.InvoiceRepository) error {
		locked, err := subRepo.GetForUpdate(ctx, sub.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.IsTerminal() {
			return domain.ErrConcurrentModification
		}
		expected := locked.Status
		fromStatus = expected
		now := time.Now()
		if immediate {
			if err := checkTransition(locked.Status, entity.SubscriptionCancelled); err != nil {
				return err
			}
			locked.Status = entity.SubscriptionCancelled
			locked.CancelledAt = &now
		} else {
			locked.CancelAtPeriodEnd = true
		}
		locked.UpdatedAt = now
		if err := subRepo.UpdateFromStatus(ctx, locked, expected); err != nil {
			return err
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.auditChange(actorID, updated, fromStatus, updated.Status, map[string]any{"immediate": immediate})
	return updated, nil
}

// Reactivate vuelve a activar una suscripción cancelada dentro de la ventana
// de gracia configurada. Pasada la ventana el caller debe crear una
// suscripción nueva.
func (uc *UseCase) Reactivate(ctx context.Context, actorID, companyID string) (*entity.Subscription, error) {
	// La cancelada ya no es "activa": se busca la última por empresa.
	sub, err := uc.subRepo.GetActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		// Vigente con cancel_at_period_end: reactivar es solo quitar la marca.
		if !sub.CancelAtPeriodEnd {
			return nil, domain.ErrSubscriptionAlreadyExists
		}
		return uc.clearCancelAtPeriodEnd(ctx, actorID, sub)
	}

	last, err := uc.subRepo.GetLastCancelledByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, domain.ErrNotFound
	}
	if last.CancelledAt == nil || time.Since(*last.CancelledAt) > time.Duration(uc.policy.ReactivationGraceDays)*24*time.Hour {
		return nil, &domain.InvalidTransitionError{From: entity.SubscriptionCancelled, To: entity.SubscriptionActive}
	}

	var updated *entity.Subscription
	err = uc.tx.RunBilling(ctx, func(subRepo repository.SubscriptionRepository, _ repository.InvoiceRepository) error {
		locked, err := subRepo.GetForUpdate(ctx, last.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.Status != entity.SubscriptionCancelled {
			return domain.ErrConcurrentModification
		}
		if err := checkTransition(locked.Status, entity.SubscriptionActive); err != nil {
			return err
		}
		now := time.Now()
		plan, err := uc.catalog.Get(ctx, locked.PlanID)
		if err != nil {
			return err
		}
		locked.Status = entity.SubscriptionActive
		locked.CancelledAt = nil
		locked.CancelAtPeriodEnd = false
		locked.CurrentPeriodStart = now
		locked.CurrentPeriodEnd = nextPeriodEnd(now, plan.BillingCycle)
		locked.UpdatedAt = now
		if err := subRepo.UpdateFromStatus(ctx, locked, entity.SubscriptionCancelled); err != nil {
			return err
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.auditChange(actorID, updated, entity.SubscriptionCancelled, entity.SubscriptionActive, nil)
	return updated, nil
}

// HandleInvoicePaid marca la factura como pagada y, en la misma transacción,
// transiciona la suscripción trialing/past_due -> active. Idempotencia por
// CAS: una factura ya terminal devuelve ErrInvoiceAlreadyFinalized.
// actorCompanyID vacío significa alcance global (super_admin).
func (uc *UseCase) HandleInvoicePaid(ctx context.Context, actorID, actorCompanyID, invoiceID string) error {
	var fromStatus, toStatus, subID string
	var companyID string
	err := uc.tx.RunBilling(ctx, func(subRepo repository.SubscriptionRepository, invRepo repository.InvoiceRepository) error {
		inv, err := invRepo.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if actorCompanyID != "" && inv.CompanyID != actorCompanyID {
			return domain.ErrForbidden
		}
		if inv.IsTerminal() {
			return domain.ErrInvoiceAlreadyFinalized
		}
		now := time.Now()
		expected := inv.Status
		inv.Status = entity.InvoicePaid
		inv.PaidAt = &now
		inv.UpdatedAt = now
		if err := invRepo.UpdateStatusFrom(ctx, inv, expected); err != nil {
			return err
		}

		sub, err := subRepo.GetForUpdate(ctx, inv.SubscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return domain.ErrNotFound
		}
		subID, companyID = sub.ID, sub.CompanyID
		fromStatus, toStatus = sub.Status, sub.Status
		// Un pago sobre una suscripción ya activa (renovación) no transiciona.
		if sub.Status == entity.SubscriptionTrialing || sub.Status == entity.SubscriptionPastDue {
			if err := checkTransition(sub.Status, entity.SubscriptionActive); err != nil {
				return err
			}
			expectedSub := sub.Status
			sub.Status = entity.SubscriptionActive
			toStatus = entity.SubscriptionActive
			sub.UpdatedAt = now
			if err := subRepo.UpdateFromStatus(ctx, sub, expectedSub); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if fromStatus != toStatus {
		uc.recorder.Record(&entity.AuditLogEntry{
			UserID:     optionalID(actorID),
			CompanyID:  companyID,
			Action:     entity.AuditSubscriptionChange,
			EntityType: "subscription",
			EntityID:   subID,
			Details:    map[string]any{"from": fromStatus, "to": toStatus, "invoice_id": invoiceID},
		})
	}
	return nil
}

// HandleInvoiceFailed incrementa attempt_count y, agotado el presupuesto de
// reintentos configurado, transiciona la suscripción a past_due. La política
// de reintentos vive acá, no en el ledger. Una fallida que ya agotó el
// presupuesto es terminal: no acumula más intentos.
// actorCompanyID vacío significa alcance global (super_admin).
func (uc *UseCase) HandleInvoiceFailed(ctx context.Context, actorID, actorCompanyID, invoiceID string) error {
	var movedPastDue bool
	var subID, companyID string
	err := uc.tx.RunBilling(ctx, func(subRepo repository.SubscriptionRepository, invRepo repository.InvoiceRepository) error {
		inv, err := invRepo.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if actorCompanyID != "" && inv.CompanyID != actorCompanyID {
			return domain.ErrForbidden
		}
		if inv.IsTerminal() || inv.AttemptCount >= uc.policy.InvoiceRetryBudget {
			return domain.ErrInvoiceAlreadyFinalized
		}
		now := time.Now()
		expected := inv.Status
		inv.AttemptCount++
		inv.Status = entity.InvoiceFailed
		inv.UpdatedAt = now
		if err := invRepo.UpdateStatusFrom(ctx, inv, expected); err != nil {
			return err
		}
		if inv.AttemptCount < uc.policy.InvoiceRetryBudget {
			return nil
		}

		sub, err := subRepo.GetForUpdate(ctx, inv.SubscriptionID)
		if err != nil {
			return err
		}
		if sub == nil || sub.Status != entity.SubscriptionActive {
			return nil // solo una activa pasa a past_due
		}
		if err := checkTransition(sub.Status, entity.SubscriptionPastDue); err != nil {
			return err
		}
		sub.Status = entity.SubscriptionPastDue
		sub.UpdatedAt = now
		if err := subRepo.UpdateFromStatus(ctx, sub, entity.SubscriptionActive); err != nil {
			return err
		}
		movedPastDue = true
		subID, companyID = sub.ID, sub.CompanyID
		return nil
	})
	if err != nil {
		return err
	}
	if movedPastDue {
		uc.recorder.Record(&entity.AuditLogEntry{
			UserID:     optionalID(actorID),
			CompanyID:  companyID,
			Action:     entity.AuditSubscriptionChange,
			EntityType: "subscription",
			EntityID:   subID,
			Details:    map[string]any{"from": entity.SubscriptionActive, "to": entity.SubscriptionPastDue, "invoice_id": invoiceID},
		})
	}
	return nil
}

// RolloverDuePeriods cierra los períodos vencidos: aplica el downgrade
// pendiente, finaliza las marcadas cancel_at_period_end y emite la factura
// de renovación. Lo ejecuta el worker de facturación.
func (uc *UseCase) RolloverDuePeriods(ctx context.Context, now time.Time, batchSize int) (int, error) {
	due, err := uc.subRepo.FindDueForRollover(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, s := range due {
		if err := uc.rolloverOne(ctx, s.ID, now); err != nil {
			// El worker sigue con el resto; el perdedor de una carrera se
			// reintenta en la próxima pasada.
			continue
		}
		processed++
	}
	return processed, nil
}

func (uc *UseCase) rolloverOne(ctx context.Context, subID string, now time.Time) error {
	var from, to string
	var companyID string
	var details map[string]any
	err := uc.tx.RunBilling(ctx, func(subRepo repository.SubscriptionRepository, invRepo repository.InvoiceRepository) error {
		locked, err := subRepo.GetForUpdate(ctx, subID)
		if err != nil {
			return err
		}
		if locked == nil || locked.IsTerminal() || locked.CurrentPeriodEnd.After(now) {
			return domain.ErrConcurrentModification
		}
		expected := locked.Status
		from, to = expected, expected
		companyID = locked.CompanyID

		if locked.CancelAtPeriodEnd {
			if err := checkTransition(locked.Status, entity.SubscriptionCancelled); err != nil {
				return err
			}
			locked.Status = entity.SubscriptionCancelled
			locked.CancelledAt = &now
			locked.UpdatedAt = now
			to = entity.SubscriptionCancelled
			details = map[string]any{"reason": "cancel_at_period_end"}
			return subRepo.UpdateFromStatus(ctx, locked, expected)
		}

		// Downgrade diferido: el plan pendiente entra recién acá.
		if locked.PendingPlanID != nil {
			details = map[string]any{"applied_pending_plan_id": *locked.PendingPlanID}
			locked.PlanID = *locked.PendingPlanID
			locked.PendingPlanID = nil
		}
		plan, err := uc.catalog.Get(ctx, locked.PlanID)
		if err != nil {
			return err
		}
		locked.CurrentPeriodStart = now
		locked.CurrentPeriodEnd = nextPeriodEnd(now, plan.BillingCycle)
		locked.TrialEndsAt = nil
		locked.UpdatedAt = now
		if err := subRepo.UpdateFromStatus(ctx, locked, expected); err != nil {
			return err
		}

		inv := &entity.Invoice{
			ID:             uuid.New().String(),
			SubscriptionID: locked.ID,
			CompanyID:      locked.CompanyID,
			Amount:         plan.Price,
			DueDate:        now.AddDate(0, 0, uc.policy.InvoiceDueDays),
			Status:         entity.InvoicePending,
			Description:    fmt.Sprintf("renovación %s", plan.Name),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return invRepo.Create(ctx, inv)
	})
	if err != nil {
		return err
	}
	uc.recorder.Record(&entity.AuditLogEntry{
		CompanyID:  companyID,
		Action:     entity.AuditSubscriptionChange,
		EntityType: "subscription",
		EntityID:   subID,
		Details:    mergeDetails(details, map[string]any{"from": from, "to": to, "rollover": true}),
	})
	return nil
}

// GetUsage uso vivo contra los límites del plan vigente.
func (uc *UseCase) GetUsage(ctx context.Context, companyID string) (map[string]entity.UsageMetric, error) {
	sub, err := uc.requireActive(ctx, companyID)
	if err != nil {
		return nil, err
	}
	plan, err := uc.catalog.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	users, err := uc.usage.CountUsers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	clients, err := uc.usage.CountClients(ctx, companyID)
	if err != nil {
		return nil, err
	}
	teams, err := uc.usage.CountTeams(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return map[string]entity.UsageMetric{
		entity.MetricUsers: {Used: users, Limit: plan.MaxUsers},
		entity.MetricLeads: {Used: clients, Limit: plan.MaxLeads},
		entity.MetricTeams: {Used: teams, Limit: plan.MaxTeams},
	}, nil
}

// CheckLimit valida que la métrica tenga cupo antes de crear un recurso.
// Lectura idempotente: el caller puede reintentar sin efectos secundarios.
func (uc *UseCase) CheckLimit(ctx context.Context, companyID, metric string) error {
	usage, err := uc.GetUsage(ctx, companyID)
	if err != nil {
		return err
	}
	m, ok := usage[metric]
	if !ok {
		return nil
	}
	if m.Limit > 0 && m.Used >= m.Limit {
		return domain.ErrLimitExceeded
	}
	return nil
}

func (uc *UseCase) requireActive(ctx context.Context, companyID string) (*entity.Subscription, error) {
	sub, err := uc.subRepo.GetActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (uc *UseCase) clearCancelAtPeriodEnd(ctx context.Context, actorID string, sub *entity.Subscription) (*entity.Subscription, error) {
	var updated *entity.Subscription
	err := uc.tx.RunBilling(ctx, func(subRepo repository.SubscriptionRepository, _ repository.InvoiceRepository) error {
		locked, err := subRepo.GetForUpdate(ctx, sub.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.IsTerminal() {
			return domain.ErrConcurrentModification
		}
		expected := locked.Status
		locked.CancelAtPeriodEnd = false
		locked.UpdatedAt = time.Now()
		if err := subRepo.UpdateFromStatus(ctx, locked, expected); err != nil {
			return err
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.auditChange(actorID, updated, updated.Status, updated.Status, map[string]any{"change": "clear_cancel_at_period_end"})
	return updated, nil
}

func (uc *UseCase) auditChange(actorID string, sub *entity.Subscription, from, to string, extra map[string]any) {
	uc.recorder.Record(&entity.AuditLogEntry{
		UserID:     optionalID(actorID),
		CompanyID:  sub.CompanyID,
		Action:     entity.AuditSubscriptionChange,
		EntityType: "subscription",
		EntityID:   sub.ID,
		Details:    mergeDetails(extra, map[string]any{"from": from, "to": to}),
	})
}

// prorate delta * días restantes / días del período, redondeado a 2 decimales.
func prorate(delta decimal.Decimal, periodStart, periodEnd, now time.Time) decimal.Decimal {
	total := periodEnd.Sub(periodStart)
	remaining := periodEnd.Sub(now)
	if total <= 0 || remaining <= 0 {
		return decimal.Zero
	}
	if remaining > total {
		remaining = total
	}
	ratio := decimal.NewFromFloat(remaining.Hours()).Div(decimal.NewFromFloat(total.Hours()))
	return delta.Mul(ratio).Round(2)
}

func nextPeriodEnd(start time.Time, billingCycle string) time.Time {
	if billingCycle == entity.BillingCycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func mergeDetails(a, b map[string]any) map[string]any {
	if a == nil {
		return b
	}
	for k, v := range b {
		a[k] = v
	}
	return a
}
