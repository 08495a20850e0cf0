package subscription

import (
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
)

// validTransitions grafo cerrado de la máquina de estados de suscripción.
// Cualquier arista fuera del grafo es InvalidTransitionError; la fila queda
// intacta al rechazarse.
var validTransitions = map[string][]string{
	entity.SubscriptionTrialing: {
		entity.SubscriptionActive,    // trial termina y el pago entra
		entity.SubscriptionCancelled, // cancelación inmediata del trial
	},
	entity.SubscriptionActive: {
		entity.SubscriptionPastDue,   // reintentos de cobro agotados
		entity.SubscriptionCancelled, // cancelación (inmediata o al cierre)
	},
	entity.SubscriptionPastDue: {
		entity.SubscriptionActive,    // pago exitoso
		entity.SubscriptionCancelled, // cancelación
	},
	entity.SubscriptionCancelled: {
		entity.SubscriptionActive, // reactivación dentro de la ventana de gracia
	},
}

// checkTransition valida la arista from -> to contra el grafo.
func checkTransition(from, to string) error {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &domain.InvalidTransitionError{From: from, To: to}
}
