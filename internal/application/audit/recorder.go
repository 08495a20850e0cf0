package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
	"github.com/ventia/crm-api/pkg/logger"
)

// RedactedValue marcador fijo con el que se reemplaza todo valor sensible.
const RedactedValue = "[REDACTED]"

// sensitiveKeys deny-list de claves (comparación case-insensitive por substring).
var sensitiveKeys = []string{
	"password", "contraseña", "token", "secret", "api_key", "apikey",
	"api key", "authorization", "credit_card", "cvv",
}

// Recorder registra acciones de seguridad en el log de auditoría.
// Record nunca devuelve error ni bloquea al caller: la auditoría no puede
// romper la operación de negocio que la dispara.
type Recorder struct {
	repo    repository.AuditRepository
	log     *logger.Logger
	timeout time.Duration
	// sync fuerza la persistencia en línea (solo tests).
	sync bool
}

// NewRecorder construye el recorder asíncrono.
func NewRecorder(repo repository.AuditRepository, log *logger.Logger) *Recorder {
	return &Recorder{repo: repo, log: log, timeout: 5 * time.Second}
}

// NewSyncRecorder variante síncrona para tests deterministas.
func NewSyncRecorder(repo repository.AuditRepository, log *logger.Logger) *Recorder {
	return &Recorder{repo: repo, log: log, timeout: 5 * time.Second, sync: true}
}

// Record sanitiza Details y persiste la entrada en segundo plano.
// Los fallos internos se loguean y se tragan.
func (r *Recorder) Record(entry *entity.AuditLogEntry) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.Details = Redact(entry.Details)

	persist := func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.repo.Insert(ctx, entry); err != nil {
			r.log.Error().Err(err).
				Str("action", entry.Action).
				Str("company_id", entry.CompanyID).
				Msg("audit: no se pudo persistir la entrada")
		}
	}
	if r.sync {
		persist()
		return
	}
	go persist()
}

// Query consulta el log con el alcance del caller: un usuario que no sea
// super_admin queda restringido en silencio a su propia empresa, ignorando
// cualquier company_id solicitado.
func (r *Recorder) Query(ctx context.Context, caller *entity.User, f repository.AuditFilters, limit, offset int) ([]*entity.AuditLogEntry, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if caller.Role != entity.RoleSuperAdmin {
		f.CompanyID = caller.CompanyID
	}
	return r.repo.Query(ctx, f, limit, offset)
}

// Redact reemplaza recursivamente los valores de claves sensibles por el
// marcador fijo, atravesando mapas y slices anidados a cualquier profundidad.
func Redact(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		if isSensitiveKey(k) {
			out[k] = RedactedValue
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Redact(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = redactValue(e)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
