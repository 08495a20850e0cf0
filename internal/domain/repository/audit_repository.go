package repository

import (
	"context"
	"time"

	"github.com/ventia/crm-api/internal/domain/entity"
)

// AuditFilters filtros de consulta del log de auditoría. CompanyID lo fija
// la capa de aplicación según el alcance del caller, no el request.
type AuditFilters struct {
	CompanyID  string // vacío = sin restricción (solo super_admin)
	UserID     string
	Action     string
	EntityType string
	From       *time.Time
	To         *time.Time
}

// AuditRepository puerto de persistencia append-only del log de auditoría.
type AuditRepository interface {
	Insert(ctx context.Context, entry *entity.AuditLogEntry) error
	Query(ctx context.Context, f AuditFilters, limit, offset int) ([]*entity.AuditLogEntry, error)
}
