package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implementación append-only del log de auditoría sobre PostgreSQL.
// Details se serializa como JSONB; las filas nunca se actualizan ni borran.
type AuditRepo struct {
	db DB
}

// NewAuditRepository construye el adaptador de persistencia del log de auditoría.
func NewAuditRepository(db DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert persiste una entrada (ya sanitizada por el Recorder).
func (r *AuditRepo) Insert(ctx context.Context, entry *entity.AuditLogEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	query := `
		INSERT INTO audit_logs (id, user_id, company_id, action, entity_type, entity_id, details, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.UserID, entry.CompanyID, entry.Action, entry.EntityType,
		entry.EntityID, details, entry.IP, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// Query consulta con filtros; el alcance por tenant ya viene fijado por la
// capa de aplicación en f.CompanyID.
func (r *AuditRepo) Query(ctx context.Context, f repository.AuditFilters, limit, offset int) ([]*entity.AuditLogEntry, error) {
	query := `SELECT id, user_id, company_id, action, entity_type, entity_id, details, ip, user_agent, created_at
		FROM audit_logs WHERE 1=1`
	var args []any
	if f.CompanyID != "" {
		args = append(args, f.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditLogEntry
	for rows.Next() {
		var e entity.AuditLogEntry
		var details []byte
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.CompanyID, &e.Action, &e.EntityType, &e.EntityID,
			&details, &e.IP, &e.UserAgent, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
