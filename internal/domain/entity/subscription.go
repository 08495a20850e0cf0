package entity

import "time"

// Estados de suscripción. Las transiciones válidas viven en la máquina de
// estados del motor de suscripciones; nunca se muta Status directamente.
const (
	SubscriptionTrialing  = "trialing"
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
)

// NonTerminalSubscriptionStatuses estados "vigentes": a lo sumo una
// suscripción por empresa puede estar en uno de ellos.
var NonTerminalSubscriptionStatuses = []string{
	SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue,
}

// Subscription relación de facturación vigente o histórica de una empresa con un Plan.
type Subscription struct {
	ID                 string
	CompanyID          string
	PlanID             string
	PendingPlanID      *string // downgrade diferido: se aplica en el cierre de período
	Status             string  // ver constantes Subscription*
	TrialEndsAt        *time.Time
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CancelledAt        *time.Time // para la ventana de gracia de reactivación
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsTerminal indica si la suscripción está en estado final.
func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionCancelled
}
