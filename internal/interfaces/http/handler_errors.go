package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
)

// respondError traduce un error de dominio a su respuesta HTTP. Los handlers
// resuelven inline los casos con mensaje propio y delegan el resto aquí.
func respondError(c *fiber.Ctx, err error) error {
	var ite *domain.InvalidTransitionError
	if errors.As(err, &ite) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: ite.Error()})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrCredentialInvalid),
		errors.Is(err, domain.ErrCredentialStale),
		errors.Is(err, domain.ErrTenantUnresolved):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNoTeamAssigned):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrAccountDisabled):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "ACCOUNT_DISABLED", Message: "cuenta desactivada"})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: "el email ya está registrado en esta empresa"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "recurso duplicado"})
	case errors.Is(err, domain.ErrSubscriptionAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SUBSCRIPTION_EXISTS", Message: "la empresa ya tiene una suscripción vigente"})
	case errors.Is(err, domain.ErrInvoiceAlreadyFinalized):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVOICE_FINALIZED", Message: "la factura ya está en un estado final"})
	case errors.Is(err, domain.ErrPlanNotAvailable):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "PLAN_NOT_AVAILABLE", Message: "el plan no está disponible para nuevas suscripciones"})
	case errors.Is(err, domain.ErrNotAnUpgrade):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NOT_AN_UPGRADE", Message: "el plan destino no es un upgrade"})
	case errors.Is(err, domain.ErrNotADowngrade):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NOT_A_DOWNGRADE", Message: "el plan destino no es un downgrade"})
	case errors.Is(err, domain.ErrLimitExceeded):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "LIMIT_EXCEEDED", Message: "límite del plan alcanzado"})
	case errors.Is(err, domain.ErrConcurrentModification):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENT_MODIFICATION", Message: "el recurso fue modificado por otra operación, reintente"})
	case errors.Is(err, domain.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas solicitudes, intente más tarde"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
