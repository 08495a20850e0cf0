package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ventia/crm-api/internal/application/audit"
	"github.com/ventia/crm-api/internal/application/dto"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
	"github.com/ventia/crm-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret          string
	ExpMinutes      int
	Issuer          string
	ResetExpMinutes int
}

// limitChecker contrato mínimo para validar límites del plan al crear
// recursos. Lo implementa el usecase de suscripciones; la interfaz evita el
// import circular.
type limitChecker interface {
	CheckLimit(ctx context.Context, companyID, metric string) error
}

// AuthUseCase autenticación y ciclo de vida de sesiones: login, registro,
// reseteo de contraseña e invalidación de credenciales por session_version.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	limits      limitChecker
	recorder    *audit.Recorder
	jwtCfg      JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, companyRepo repository.CompanyRepository, limits limitChecker, recorder *audit.Recorder, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, companyRepo: companyRepo, limits: limits, recorder: recorder, jwtCfg: jwtCfg}
}

// RegisterUser crea un usuario: valida el límite de usuarios del plan,
// hashea password con bcrypt y persiste. ErrEmailAlreadyExists si el email
// ya existe en esa company.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	existing, _ := uc.userRepo.GetByEmailAndCompany(ctx, in.Email, in.CompanyID)
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound // empresa no existe
	}
	if uc.limits != nil {
		if err := uc.limits.CheckLimit(ctx, in.CompanyID, entity.MetricUsers); err != nil {
			return nil, err
		}
	}
	role := in.Role
	if role == "" {
		role = entity.RoleVendedor
	}
	if !entity.ValidRole(role) {
		return nil, domain.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	name := in.Name
	if name == "" {
		name = in.Email
	}
	var teamID *string
	if in.TeamID != "" {
		teamID = &in.TeamID
	}
	user := &entity.User{
		ID:             uuid.New().String(),
		CompanyID:      in.CompanyID,
		Email:          in.Email,
		PasswordHash:   string(hash),
		Name:           name,
		Role:           role,
		TeamID:         teamID,
		SessionVersion: 0,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifica email/password, genera JWT con la versión de sesión vigente
// y registra la acción en auditoría (incluido el intento fallido).
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		uc.recordLoginFailed(nil, "", in.Email, ip, userAgent)
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		uc.recordLoginFailed(&user.ID, user.CompanyID, in.Email, ip, userAgent)
		return nil, domain.ErrUnauthorized
	}
	if !user.Active {
		uc.recordLoginFailed(&user.ID, user.CompanyID, in.Email, ip, userAgent)
		return nil, domain.ErrAccountDisabled
	}

	teamID := ""
	if user.TeamID != nil {
		teamID = *user.TeamID
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, jwt.Identity{
		UserID:         user.ID,
		CompanyID:      user.CompanyID,
		Role:           user.Role,
		TeamID:         teamID,
		SessionVersion: user.SessionVersion,
	})
	if err != nil {
		return nil, err
	}

	uc.recorder.Record(&entity.AuditLogEntry{
		UserID:     &user.ID,
		CompanyID:  user.CompanyID,
		Action:     entity.AuditLogin,
		EntityType: "user",
		EntityID:   user.ID,
		IP:         ip,
		UserAgent:  userAgent,
	})
	return &dto.LoginResponse{Token: token, User: *toUserResponse(user)}, nil
}

// ValidateSession chequeos por request sobre una credencial ya verificada
// criptográficamente: cuenta activa y session_version vigente. La marca de
// "visto por última vez" se actualiza en segundo plano y nunca falla el request.
func (uc *AuthUseCase) ValidateSession(ctx context.Context, id jwt.Identity) (*entity.User, error) {
	if id.CompanyID == "" && id.Role != entity.RoleSuperAdmin {
		return nil, domain.ErrTenantUnresolved
	}
	user, err := uc.userRepo.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrCredentialInvalid
	}
	if !user.Active {
		return nil, domain.ErrAccountDisabled
	}
	if id.SessionVersion < user.SessionVersion {
		return nil, domain.ErrCredentialStale
	}

	// Best-effort: jamás bloquea ni propaga error.
	go func(userID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = uc.userRepo.TouchLastSeen(ctx, userID)
	}(user.ID)

	return user, nil
}

// BeginPasswordReset emite un token de reseteo de propósito único para el
// usuario con ese email. El token se entrega por un canal fuera de banda
// (correo); esta función no lo expone por la API pública.
func (uc *AuthUseCase) BeginPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !user.Active {
		return "", domain.ErrUserNotFound
	}
	exp := uc.jwtCfg.ResetExpMinutes
	if exp <= 0 {
		exp = 30
	}
	return jwt.GenerateReset(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, exp, user.ID)
}

// VerifyResetToken valida un token de reseteo y devuelve el usuario al que
// pertenece. Un token de acceso común nunca pasa: el reseteo exige el claim
// de propósito dedicado.
func (uc *AuthUseCase) VerifyResetToken(ctx context.Context, token string) (string, error) {
	userID, err := jwt.ParseReset(uc.jwtCfg.Secret, token)
	if err != nil {
		return "", domain.ErrCredentialInvalid
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || !user.Active {
		return "", domain.ErrCredentialInvalid
	}
	return user.ID, nil
}

// CompletePasswordReset fija la contraseña nueva y bumpea session_version:
// todo token emitido antes del reseteo queda inservible aunque no expire.
// El llamador ya verificó el token de reseteo; acá solo se aplica el cambio.
func (uc *AuthUseCase) CompletePasswordReset(ctx context.Context, userID, newPassword string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return err
	}
	if _, err := uc.userRepo.BumpSessionVersion(ctx, userID); err != nil {
		return err
	}
	uc.recorder.Record(&entity.AuditLogEntry{
		UserID:     &user.ID,
		CompanyID:  user.CompanyID,
		Action:     entity.AuditPasswordReset,
		EntityType: "user",
		EntityID:   user.ID,
	})
	return nil
}

// LogoutEverywhere invalida todas las sesiones emitidas del usuario.
func (uc *AuthUseCase) LogoutEverywhere(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if _, err := uc.userRepo.BumpSessionVersion(ctx, userID); err != nil {
		return err
	}
	uc.recorder.Record(&entity.AuditLogEntry{
		UserID:     &user.ID,
		CompanyID:  user.CompanyID,
		Action:     entity.AuditLogoutEverywhere,
		EntityType: "user",
		EntityID:   user.ID,
	})
	return nil
}

// SetUserActive activa/desactiva una cuenta por decisión administrativa.
// La desactivación y la reactivación bumpean session_version: los tokens
// previos al cambio no sobreviven.
func (uc *AuthUseCase) SetUserActive(ctx context.Context, actorID, userID string, active bool) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor == nil {
		return domain.ErrUnauthorized
	}
	// Un admin solo gestiona cuentas de su propia empresa.
	if actor.Role != entity.RoleSuperAdmin && actor.CompanyID != user.CompanyID {
		return domain.ErrForbidden
	}
	if err := uc.userRepo.SetActive(ctx, userID, active); err != nil {
		return err
	}
	if _, err := uc.userRepo.BumpSessionVersion(ctx, userID); err != nil {
		return err
	}
	action := entity.AuditUserDeactivated
	if active {
		action = entity.AuditUserReactivated
	}
	uc.recorder.Record(&entity.AuditLogEntry{
		UserID:     &actorID,
		CompanyID:  user.CompanyID,
		Action:     action,
		EntityType: "user",
		EntityID:   user.ID,
	})
	return nil
}

func (uc *AuthUseCase) recordLoginFailed(userID *string, companyID, email, ip, userAgent string) {
	uc.recorder.Record(&entity.AuditLogEntry{
		UserID:     userID,
		CompanyID:  companyID,
		Action:     entity.AuditLoginFailed,
		EntityType: "user",
		Details:    map[string]any{"email": email},
		IP:         ip,
		UserAgent:  userAgent,
	})
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:             u.ID,
		CompanyID:      u.CompanyID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		TeamID:         u.TeamID,
		SessionVersion: u.SessionVersion,
		Active:         u.Active,
		LastSeenAt:     u.LastSeenAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
