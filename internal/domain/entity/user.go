package entity

import "time"

// Roles válidos para User.
const (
	RoleVendedor   = "vendedor"
	RoleGerente    = "gerente"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// ValidRole indica si el rol pertenece al conjunto cerrado de roles.
func ValidRole(role string) bool {
	switch role {
	case RoleVendedor, RoleGerente, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User representa un usuario del sistema (pertenece a una Company).
// SessionVersion es un contador monótono: un token emitido con una versión
// menor a la actual queda invalidado de forma permanente.
type User struct {
	ID             string
	CompanyID      string
	Email          string
	PasswordHash   string // bcrypt hash, nunca plano en dominio después de persistir
	Name           string
	Role           string  // ver constantes Role*
	TeamID         *string // nil = sin equipo (bloquea el alcance de gerente)
	SessionVersion int     // inicia en 0, solo incrementa
	Active         bool
	LastSeenAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
