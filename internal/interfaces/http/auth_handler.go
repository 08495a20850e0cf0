package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ventia/crm-api/internal/application/auth"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
)

// resetTokenVerifier valida un token de reseteo de contraseña y devuelve el
// usuario dueño. Lo implementa AuthUseCase; la interfaz permite sustituirlo
// en tests.
type resetTokenVerifier interface {
	VerifyResetToken(ctx context.Context, token string) (string, error)
}

// AuthHandler maneja registro, login y ciclo de vida de sesiones.
type AuthHandler struct {
	uc     *auth.AuthUseCase
	resets resetTokenVerifier
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, resets resetTokenVerifier) *AuthHandler {
	return &AuthHandler{uc: uc, resets: resets}
}

// Register godoc
// @Summary      Registrar usuario en la empresa
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "email, password, role"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	// Un admin solo da de alta usuarios en su propia empresa; super_admin
	// puede indicar cualquier company_id.
	if GetRole(c) != "super_admin" {
		in.CompanyID = GetCompanyID(c)
	}
	if in.Email == "" || in.Password == "" || in.CompanyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "email, password y company_id son requeridos"})
	}
	if len(in.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "password debe tener al menos 8 caracteres"})
	}
	user, err := h.uc.RegisterUser(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "COMPANY_NOT_FOUND", Message: "la empresa no existe"})
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Email == "" || in.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "email y password son requeridos"})
	}
	out, err := h.uc.Login(c.Context(), in, c.IP(), c.Get("User-Agent"))
	if err != nil {
		// No distinguimos "usuario no existe" de "password incorrecta".
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
		}
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ResetPassword cierra un flujo de reseteo de contraseña: verifica el token
// de reseteo, fija la contraseña nueva e invalida toda sesión previa. La ruta
// es pública, así que todo sale del token; nunca se acepta un user_id crudo.
// POST /api/auth/password-reset
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in dto.ResetPasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Token == "" || len(in.NewPassword) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "token y new_password (mínimo 8 caracteres) son requeridos"})
	}
	userID, err := h.resets.VerifyResetToken(c.Context(), in.Token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "RESET_TOKEN_INVALID", Message: "token de reseteo inválido o expirado"})
	}
	if err := h.uc.CompletePasswordReset(c.Context(), userID, in.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// LogoutEverywhere invalida todos los tokens emitidos del caller.
// POST /api/auth/logout-all
func (h *AuthHandler) LogoutEverywhere(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.uc.LogoutEverywhere(c.Context(), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// SetUserActive activa o desactiva una cuenta de la empresa (solo admin).
// PATCH /api/users/:id/active
func (h *AuthHandler) SetUserActive(c *fiber.Ctx) error {
	var in struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	if err := h.uc.SetUserActive(c.Context(), GetUserID(c), id, in.Active); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "active": in.Active})
}
