package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")

	// Autenticación / contexto de tenant.
	ErrTenantUnresolved  = errors.New("no se pudo resolver la empresa del contexto")
	ErrCredentialInvalid = errors.New("credencial inválida")
	ErrCredentialStale   = errors.New("credencial emitida antes de una invalidación de sesión")
	ErrAccountDisabled   = errors.New("cuenta desactivada")
	ErrNoTeamAssigned    = errors.New("el gerente no tiene equipo asignado")

	// Suscripciones y facturación.
	ErrNotAnUpgrade              = errors.New("el plan destino no es un upgrade")
	ErrNotADowngrade             = errors.New("el plan destino no es un downgrade")
	ErrSubscriptionAlreadyExists = errors.New("la empresa ya tiene una suscripción vigente")
	ErrInvoiceAlreadyFinalized   = errors.New("la factura ya está en un estado final")
	ErrPlanNotAvailable          = errors.New("el plan no está disponible para nuevas suscripciones")
	ErrLimitExceeded             = errors.New("límite del plan alcanzado")

	// Concurrencia y rate limiting.
	ErrConcurrentModification = errors.New("el recurso fue modificado por otra operación concurrente")
	ErrRateLimited            = errors.New("demasiadas solicitudes, intente más tarde")
)

// InvalidTransitionError transición no permitida en la máquina de estados de suscripción.
// Incluye estado actual e intentado para diagnóstico; nunca datos de otros tenants.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de suscripción inválida: %s -> %s", e.From, e.To)
}

// IsInvalidTransition verifica si err es una transición inválida de suscripción.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
