package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ciclos de facturación.
const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// Métricas de uso limitadas por plan.
const (
	MetricUsers     = "users"
	MetricLeads     = "leads"
	MetricTeams     = "teams"
	MetricStorageMB = "storage_mb"
)

// Plan describe un nivel de suscripción: precio y límites de recursos.
// Una fila referenciada por una suscripción existente es inmutable a efectos
// de facturación histórica: se desactiva (Active=false), nunca se borra.
type Plan struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	BillingCycle string // monthly, yearly
	MaxUsers     int
	MaxLeads     int
	MaxTeams     int
	MaxStorageMB int
	Active       bool
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Limit devuelve el límite del plan para la métrica dada (-1 = sin límite conocido).
func (p *Plan) Limit(metric string) int {
	switch metric {
	case MetricUsers:
		return p.MaxUsers
	case MetricLeads:
		return p.MaxLeads
	case MetricTeams:
		return p.MaxTeams
	case MetricStorageMB:
		return p.MaxStorageMB
	}
	return -1
}

// UsageMetric uso vivo de una métrica contra el límite del plan.
type UsageMetric struct {
	Used  int
	Limit int
}

// PlanComparison resultado de comparar dos planes para upgrade/downgrade.
// IsUpgrade es estrictamente price(B) > price(A); precio igual se trata
// como clase downgrade (no dispara facturación de upgrade).
type PlanComparison struct {
	IsUpgrade   bool
	PriceDelta  decimal.Decimal // price(B) - price(A)
	LimitDeltas map[string]int  // métrica -> limit(B) - limit(A)
}

// ComparePlans compara A contra B según la regla de precio estricta.
func ComparePlans(a, b *Plan) PlanComparison {
	return PlanComparison{
		IsUpgrade:  b.Price.GreaterThan(a.Price),
		PriceDelta: b.Price.Sub(a.Price),
		LimitDeltas: map[string]int{
			MetricUsers:     b.MaxUsers - a.MaxUsers,
			MetricLeads:     b.MaxLeads - a.MaxLeads,
			MetricTeams:     b.MaxTeams - a.MaxTeams,
			MetricStorageMB: b.MaxStorageMB - a.MaxStorageMB,
		},
	}
}
