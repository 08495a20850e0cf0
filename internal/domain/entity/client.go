package entity

import "time"

// Client registro mínimo de cliente/lead del CRM. Es la entidad protegida
// sobre la que opera la política de alcance: toda query sobre clients
// consume un domain.Scope. Los campos comerciales completos viven en el
// resto del CRM y no afectan a este núcleo.
type Client struct {
	ID        string
	CompanyID string
	VendorID  string // vendedor propietario; base del alcance Self/Team
	Name      string
	Email     string
	Phone     string
	Status    string // lead, active, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
