package dto

import "time"

// ClientResponse cliente/lead visible según el alcance del caller.
type ClientResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	VendorID  string    `json:"vendor_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateClientRequest alta de cliente. VendorID vacío = el propio caller.
type CreateClientRequest struct {
	VendorID string `json:"vendor_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// UpdateClientRequest edición de campos básicos de un cliente.
type UpdateClientRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
}

// CreateCompanyRequest alta de una empresa (tenant).
type CreateCompanyRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CompanyResponse representación pública de una empresa.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTeamRequest alta de un equipo de ventas.
type CreateTeamRequest struct {
	Name      string `json:"name"`
	ManagerID string `json:"manager_id"`
}

// TeamResponse equipo de ventas de la empresa.
type TeamResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	ManagerID string    `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntryResponse entrada del log de auditoría.
type AuditEntryResponse struct {
	ID         string         `json:"id"`
	UserID     *string        `json:"user_id,omitempty"`
	CompanyID  string         `json:"company_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryRequest filtros de consulta del log de auditoría.
type AuditQueryRequest struct {
	CompanyID  string `query:"company_id"` // solo super_admin puede elegir otra empresa
	UserID     string `query:"user_id"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
	From       string `query:"from"` // RFC 3339
	To         string `query:"to"`
	PageRequest
}
