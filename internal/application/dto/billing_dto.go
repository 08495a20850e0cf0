package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanResponse plan del catálogo.
type PlanResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	BillingCycle string          `json:"billing_cycle"`
	MaxUsers     int             `json:"max_users"`
	MaxLeads     int             `json:"max_leads"`
	MaxTeams     int             `json:"max_teams"`
	MaxStorageMB int             `json:"max_storage_mb"`
	DisplayOrder int             `json:"display_order"`
}

// SubscriptionResponse estado de la suscripción de una empresa.
type SubscriptionResponse struct {
	ID                 string     `json:"id"`
	CompanyID          string     `json:"company_id"`
	PlanID             string     `json:"plan_id"`
	PendingPlanID      *string    `json:"pending_plan_id,omitempty"`
	Status             string     `json:"status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

// CreateTrialRequest alta de período de prueba. PlanID opcional: vacío toma
// el plan activo más económico.
type CreateTrialRequest struct {
	PlanID string `json:"plan_id"`
}

// ChangePlanRequest upgrade o downgrade de plan.
type ChangePlanRequest struct {
	PlanID string `json:"plan_id"`
}

// CancelRequest cancelación inmediata o al cierre del período.
type CancelRequest struct {
	Immediate bool `json:"immediate"`
}

// UsageMetric uso vivo contra el límite del plan.
type UsageMetric struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// UsageResponse mapa métrica -> uso/límite.
type UsageResponse struct {
	Metrics map[string]UsageMetric `json:"metrics"`
}

// InvoiceResponse factura del ledger.
type InvoiceResponse struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	CompanyID      string          `json:"company_id"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
	Status         string          `json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	AttemptCount   int             `json:"attempt_count"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateInvoiceRequest alta manual de factura (solo operadores autorizados).
type CreateInvoiceRequest struct {
	SubscriptionID string          `json:"subscription_id"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
	Description    string          `json:"description"`
}

// InvoiceStatsResponse agregados de facturación.
type InvoiceStatsResponse struct {
	PaidTotal    decimal.Decimal `json:"paid_total"`
	PendingTotal decimal.Decimal `json:"pending_total"`
	OverdueTotal decimal.Decimal `json:"overdue_total"`
	Counts       map[string]int  `json:"counts"`
}
