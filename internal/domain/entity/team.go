package entity

import "time"

// Team agrupa vendedores bajo el alcance de un gerente, dentro de una Company.
type Team struct {
	ID        string
	CompanyID string
	Name      string
	ManagerID *string // gerente a cargo; nil si aún no se asigna
	CreatedAt time.Time
	UpdatedAt time.Time
}
