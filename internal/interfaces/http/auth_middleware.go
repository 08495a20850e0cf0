package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/pkg/jwt"
)

// Locals keys para la identidad del caller en Fiber.
const (
	LocalUserID    = "user_id"
	LocalCompanyID = "company_id"
	LocalRole      = "role"
	LocalTeamID    = "team_id"
	LocalIdentity  = "identity"
	LocalUser      = "user"
)

// sessionChecker chequeos por request sobre una credencial ya verificada
// criptográficamente: cuenta activa y session_version vigente. Lo implementa
// auth.AuthUseCase; nil desactiva el chequeo (tests de middleware puro).
type sessionChecker interface {
	ValidateSession(ctx context.Context, id jwt.Identity) (*entity.User, error)
}

// AuthMiddleware valida el Bearer Token JWT, chequea la sesión contra la DB
// y carga la identidad del caller en c.Locals.
func AuthMiddleware(jwtSecret string, sessions sessionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		id, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}

		if sessions != nil {
			user, err := sessions.ValidateSession(c.Context(), id)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrCredentialStale):
					return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "STALE_CREDENTIAL", Message: "la sesión fue invalidada, inicie sesión de nuevo"})
				case errors.Is(err, domain.ErrAccountDisabled):
					return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "ACCOUNT_DISABLED", Message: "cuenta desactivada"})
				case errors.Is(err, domain.ErrTenantUnresolved):
					return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "TENANT_UNRESOLVED", Message: "no se pudo resolver la empresa del token"})
				case errors.Is(err, domain.ErrCredentialInvalid):
					return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "credencial inválida"})
				default:
					return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo validar la sesión"})
				}
			}
			c.Locals(LocalUser, user)
		}

		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalCompanyID, id.CompanyID)
		c.Locals(LocalRole, id.Role)
		c.Locals(LocalTeamID, id.TeamID)
		c.Locals(LocalIdentity, id)
		return c.Next()
	}
}

// RequireRole autoriza el acceso a los roles indicados (después de
// AuthMiddleware). Token sin claim de rol retorna 401; rol no permitido, 403.
func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	return localString(c, LocalUserID)
}

// GetCompanyID devuelve el CompanyID del contexto (después del middleware de auth).
func GetCompanyID(c *fiber.Ctx) string {
	return localString(c, LocalCompanyID)
}

// GetRole devuelve el rol del contexto (después del middleware de auth).
func GetRole(c *fiber.Ctx) string {
	return localString(c, LocalRole)
}

// GetIdentity devuelve la identidad completa embebida en el token.
func GetIdentity(c *fiber.Ctx) jwt.Identity {
	v := c.Locals(LocalIdentity)
	if v == nil {
		return jwt.Identity{}
	}
	id, _ := v.(jwt.Identity)
	return id
}

// GetUser devuelve el usuario validado contra la DB, o nil si el middleware
// corrió sin sessionChecker.
func GetUser(c *fiber.Ctx) *entity.User {
	v := c.Locals(LocalUser)
	if v == nil {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}

// TenantScopeID devuelve el company_id que acota las operaciones del caller:
// vacío para super_admin (alcance global), su propia empresa para el resto.
func TenantScopeID(c *fiber.Ctx) string {
	if GetRole(c) == entity.RoleSuperAdmin {
		return ""
	}
	return GetCompanyID(c)
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
