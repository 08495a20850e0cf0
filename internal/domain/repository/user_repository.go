package repository

import (
	"context"

	"github.com/ventia/crm-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmailAndCompany(ctx context.Context, email, companyID string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error)
	// BumpSessionVersion incremento atómico en el storage
	// (SET session_version = session_version + 1). Devuelve la versión resultante.
	BumpSessionVersion(ctx context.Context, id string) (int, error)
	// SetActive activa/desactiva la cuenta. No toca session_version:
	// el caller decide si además invalida sesiones.
	SetActive(ctx context.Context, id string, active bool) error
	// TouchLastSeen actualización best-effort del último acceso.
	TouchLastSeen(ctx context.Context, id string) error
}
