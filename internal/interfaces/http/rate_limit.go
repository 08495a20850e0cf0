package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/ventia/crm-api/internal/application/dto"
)

// RateLimitByIP limiter de ventana deslizante por IP de origen. Cada ruta
// sensible (login, reseteo) lleva su propia instancia: las ventanas no se
// comparten entre operaciones.
func RateLimitByIP(max, windowSec int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:                    max,
		Expiration:             time.Duration(windowSec) * time.Second,
		LimiterMiddleware:      limiter.SlidingWindow{},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	})
}

// RateLimitByTenant limiter de ventana deslizante por empresa autenticada
// (cae a IP si la ruta corre sin auth). Se usa en rutas de creación de
// recursos para que un tenant ruidoso no agote la cuota de otros.
func RateLimitByTenant(max, windowSec int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        time.Duration(windowSec) * time.Second,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if companyID := GetCompanyID(c); companyID != "" {
				return companyID
			}
			return c.IP()
		},
		LimitReached: rateLimitReached,
	})
}

func rateLimitReached(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas solicitudes, intente más tarde"})
}
