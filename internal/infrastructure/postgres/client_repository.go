package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

const clientColumns = `id, company_id, vendor_id, name, email, phone, status, created_at, updated_at`

// ClientRepo implementación del puerto ClientRepository sobre PostgreSQL.
type ClientRepo struct {
	db DB
}

// NewClientRepository construye el adaptador de persistencia para clientes.
func NewClientRepository(db DB) *ClientRepo {
	return &ClientRepo{db: db}
}

// Create persiste un nuevo cliente.
func (r *ClientRepo) Create(ctx context.Context, client *entity.Client) error {
	query := `
		INSERT INTO clients (id, company_id, vendor_id, name, email, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		client.ID, client.CompanyID, client.VendorID, client.Name, client.Email,
		client.Phone, client.Status, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID lectura sin alcance, exclusiva del patrón check-then-act de la
// capa de aplicación (leer, verificar propiedad contra el Scope, mutar).
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	var c entity.Client
	err := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id).Scan(
		&c.ID, &c.CompanyID, &c.VendorID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by id: %w", err)
	}
	return &c, nil
}

// ListByScope renderiza el Scope como predicado obligatorio de la query.
// Un Scope de equipo sin vendedores no devuelve filas: nunca se ensancha.
func (r *ClientRepo) ListByScope(ctx context.Context, scope domain.Scope, limit, offset int) ([]*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	var args []any
	switch {
	case scope.Kind == domain.ScopeGlobal:
		// sin predicado de tenant (solo endpoints super_admin)
	case scope.RestrictsVendors():
		args = append(args, scope.TenantID, scope.VendorIDs)
		query += ` WHERE company_id = $1 AND vendor_id = ANY($2)`
	default:
		args = append(args, scope.TenantID)
		query += ` WHERE company_id = $1`
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.VendorID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Update actualiza un cliente (la verificación de alcance ya ocurrió arriba).
func (r *ClientRepo) Update(ctx context.Context, client *entity.Client) error {
	query := `UPDATE clients SET name = $2, email = $3, phone = $4, status = $5, updated_at = $6 WHERE id = $1`
	_, err := r.db.Exec(ctx, query,
		client.ID, client.Name, client.Email, client.Phone, client.Status, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

// Delete elimina un cliente por ID.
func (r *ClientRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}
