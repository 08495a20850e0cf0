package entity

import "time"

// Company representa una organización/tenant del sistema. Toda entidad
// protegida pertenece a exactamente una Company vía company_id.
type Company struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
