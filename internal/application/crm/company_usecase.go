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

// CompanyUseCase alta y consulta de empresas (tenants).
type CompanyUseCase struct {
	companyRepo repository.CompanyRepository
}

// NewCompanyUseCase construye el caso de uso de empresas.
func NewCompanyUseCase(companyRepo repository.CompanyRepository) *CompanyUseCase {
	return &CompanyUseCase{companyRepo: companyRepo}
}

// Create registra una empresa nueva.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*entity.Company, error) {
	if in.Name == "" || in.Email == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	company := &entity.Company{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// GetByID obtiene una empresa. callerCompanyID vacío = alcance global.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id, callerCompanyID string) (*entity.Company, error) {
	if callerCompanyID != "" && id != callerCompanyID {
		return nil, domain.ErrForbidden
	}
	company, err := uc.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return company, nil
}

// List lista empresas (solo super_admin).
func (uc *CompanyUseCase) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	return uc.companyRepo.List(ctx, limit, offset)
}
