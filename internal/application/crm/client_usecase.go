package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

// limitChecker contrato mínimo contra los límites del plan (lo implementa el
// motor de suscripciones).
type limitChecker interface {
	CheckLimit(ctx context.Context, companyID, metric string) error
}

// ClientUseCase CRUD mínimo de clientes bajo política de alcance. Las
// lecturas de listado pasan el Scope a la query; las mutaciones sobre una
// fila concreta usan check-then-act: leer sin alcance, verificar propiedad
// contra el Scope y fallar con ErrForbidden si la fila queda fuera, antes de
// tocar nada. Así no se revela la existencia de filas ajenas.
type ClientUseCase struct {
	clientRepo repository.ClientRepository
	limits     limitChecker
}

// NewClientUseCase construye el caso de uso de clientes.
func NewClientUseCase(clientRepo repository.ClientRepository, limits limitChecker) *ClientUseCase {
	return &ClientUseCase{clientRepo: clientRepo, limits: limits}
}

// Create alta de cliente dentro del alcance del caller y del límite de leads.
func (uc *ClientUseCase) Create(ctx context.Context, caller *entity.User, scope domain.Scope, in dto.CreateClientRequest) (*entity.Client, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	vendorID := in.VendorID
	if vendorID == "" {
		vendorID = caller.ID
	}
	// El propietario asignado debe caer dentro del alcance del caller.
	if !scope.AllowsVendor(caller.CompanyID, vendorID) {
		return nil, domain.ErrForbidden
	}
	if uc.limits != nil {
		if err := uc.limits.CheckLimit(ctx, caller.CompanyID, entity.MetricLeads); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	client := &entity.Client{
		ID:        uuid.New().String(),
		CompanyID: caller.CompanyID,
		VendorID:  vendorID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Status:    "lead",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// List clientes visibles según el alcance.
func (uc *ClientUseCase) List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*entity.Client, error) {
	return uc.clientRepo.ListByScope(ctx, scope, limit, offset)
}

// Get obtiene un cliente con check-then-act contra el alcance.
func (uc *ClientUseCase) Get(ctx context.Context, scope domain.Scope, id string) (*entity.Client, error) {
	client, err := uc.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	if !scope.AllowsVendor(client.CompanyID, client.VendorID) {
		return nil, domain.ErrForbidden
	}
	return client, nil
}

// Update edita campos básicos, verificando propiedad antes de mutar.
func (uc *ClientUseCase) Update(ctx context.Context, scope domain.Scope, id string, in dto.UpdateClientRequest) (*entity.Client, error) {
	client, err := uc.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	if !scope.AllowsVendor(client.CompanyID, client.VendorID) {
		return nil, domain.ErrForbidden
	}
	if in.Name != "" {
		client.Name = in.Name
	}
	if in.Email != "" {
		client.Email = in.Email
	}
	if in.Phone != "" {
		client.Phone = in.Phone
	}
	if in.Status != "" {
		client.Status = in.Status
	}
	client.UpdatedAt = time.Now()
	if err := uc.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// Delete elimina un cliente, con la misma verificación de propiedad.
func (uc *ClientUseCase) Delete(ctx context.Context, scope domain.Scope, id string) error {
	client, err := uc.clientRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if client == nil {
		return domain.ErrNotFound
	}
	if !scope.AllowsVendor(client.CompanyID, client.VendorID) {
		return domain.ErrForbidden
	}
	return uc.clientRepo.Delete(ctx, id)
}
