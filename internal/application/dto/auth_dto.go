package dto

import "time"

// LoginRequest credenciales de inicio de sesión.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest alta de usuario dentro de una empresa.
type RegisterRequest struct {
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	TeamID    string `json:"team_id"`
}

// UserResponse representación pública de un usuario (sin hash).
type UserResponse struct {
	ID             string     `json:"id"`
	CompanyID      string     `json:"company_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	TeamID         *string    `json:"team_id,omitempty"`
	SessionVersion int        `json:"session_version"`
	Active         bool       `json:"active"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LoginResponse token emitido + usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ResetPasswordRequest cierre de un flujo de reseteo de contraseña. El token
// de reseteo es de propósito único; un token de acceso no sirve.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
