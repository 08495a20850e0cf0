package entity

import "time"

// Acciones auditables (closed set, deben coincidir con el CHECK de audit_logs).
const (
	AuditLogin              = "LOGIN"
	AuditLoginFailed        = "LOGIN_FAILED"
	AuditPasswordReset      = "PASSWORD_RESET"
	AuditLogoutEverywhere   = "LOGOUT_EVERYWHERE"
	AuditUserDeactivated    = "USER_DEACTIVATED"
	AuditUserReactivated    = "USER_REACTIVATED"
	AuditSubscriptionChange = "SUBSCRIPTION_CHANGE"
	AuditInvoiceChange      = "INVOICE_CHANGE"
	AuditAccessDenied       = "ACCESS_DENIED"
)

// AuditLogEntry registro append-only de una acción relevante de seguridad.
// Details ya debe venir sanitizado (el Recorder redacta claves sensibles);
// una fila nunca se muta después de insertada.
type AuditLogEntry struct {
	ID         string
	UserID     *string // nil en login fallido sin usuario identificado
	CompanyID  string
	Action     string // ver constantes Audit*
	EntityType string
	EntityID   string
	Details    map[string]any
	IP         string
	UserAgent  string
	CreatedAt  time.Time
}
