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

// TeamUseCase alta y consulta de equipos de ventas dentro de una empresa.
type TeamUseCase struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	limits   limitChecker
}

// NewTeamUseCase construye el caso de uso de equipos.
func NewTeamUseCase(teamRepo repository.TeamRepository, userRepo repository.UserRepository, limits limitChecker) *TeamUseCase {
	return &TeamUseCase{teamRepo: teamRepo, userRepo: userRepo, limits: limits}
}

// Create alta de equipo. El gerente, si se indica, debe pertenecer a la misma
// empresa y tener rol gerente.
func (uc *TeamUseCase) Create(ctx context.Context, companyID string, in dto.CreateTeamRequest) (*entity.Team, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if uc.limits != nil {
		if err := uc.limits.CheckLimit(ctx, companyID, entity.MetricTeams); err != nil {
			return nil, err
		}
	}
	var managerID *string
	if in.ManagerID != "" {
		manager, err := uc.userRepo.GetByID(ctx, in.ManagerID)
		if err != nil {
			return nil, err
		}
		if manager == nil || manager.CompanyID != companyID {
			return nil, domain.ErrNotFound
		}
		if manager.Role != entity.RoleGerente {
			return nil, domain.ErrInvalidInput
		}
		managerID = &manager.ID
	}
	now := time.Now()
	team := &entity.Team{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      in.Name,
		ManagerID: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// ListByCompany equipos de la empresa.
func (uc *TeamUseCase) ListByCompany(ctx context.Context, companyID string) ([]*entity.Team, error) {
	return uc.teamRepo.ListByCompany(ctx, companyID)
}
