package domain

// ScopeKind conjunto cerrado de alcances de acceso a datos.
// Cada rol mapea a exactamente uno; no hay fallthrough por defecto.
type ScopeKind int

const (
	// ScopeSelf vendedor: solo filas cuyo vendedor propietario es el principal.
	ScopeSelf ScopeKind = iota
	// ScopeTeam gerente: filas cuyos vendedores pertenecen a su equipo.
	ScopeTeam
	// ScopeTenant admin: sin restricción dentro de la empresa.
	ScopeTenant
	// ScopeGlobal super_admin: sin restricción entre empresas.
	// Solo para endpoints administrativos cross-tenant, nunca de negocio.
	ScopeGlobal
)

// String nombre legible del alcance (para logs y auditoría).
func (k ScopeKind) String() string {
	switch k {
	case ScopeSelf:
		return "self"
	case ScopeTeam:
		return "team"
	case ScopeTenant:
		return "tenant"
	case ScopeGlobal:
		return "global"
	}
	return "unknown"
}

// Scope especificación de alcance calculada una vez por request y pasada
// explícitamente a la capa de acceso a datos. Toda query protegida debe
// consumir exactamente un Scope como predicado obligatorio.
type Scope struct {
	Kind      ScopeKind
	TenantID  string   // vacío solo para ScopeGlobal
	VendorIDs []string // ScopeSelf: [principal]; ScopeTeam: vendedores del equipo
}

// SelfScope alcance de un vendedor sobre sus propias filas.
func SelfScope(tenantID, vendorID string) Scope {
	return Scope{Kind: ScopeSelf, TenantID: tenantID, VendorIDs: []string{vendorID}}
}

// TeamScope alcance de un gerente sobre los vendedores de su equipo.
func TeamScope(tenantID string, vendorIDs []string) Scope {
	return Scope{Kind: ScopeTeam, TenantID: tenantID, VendorIDs: vendorIDs}
}

// TenantScope alcance de un admin dentro de su empresa.
func TenantScope(tenantID string) Scope {
	return Scope{Kind: ScopeTenant, TenantID: tenantID}
}

// GlobalScope alcance de super_admin entre empresas.
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

// AllowsTenant indica si el alcance permite operar sobre la empresa dada.
func (s Scope) AllowsTenant(tenantID string) bool {
	if s.Kind == ScopeGlobal {
		return true
	}
	return s.TenantID != "" && s.TenantID == tenantID
}

// AllowsVendor verifica propiedad de una fila (check-then-act): la fila debe
// estar dentro del tenant y, para Self/Team, pertenecer a un vendedor permitido.
func (s Scope) AllowsVendor(tenantID, vendorID string) bool {
	if !s.AllowsTenant(tenantID) {
		return false
	}
	switch s.Kind {
	case ScopeSelf, ScopeTeam:
		for _, id := range s.VendorIDs {
			if id == vendorID {
				return true
			}
		}
		return false
	case ScopeTenant, ScopeGlobal:
		return true
	}
	return false
}

// RestrictsVendors indica si el alcance filtra por vendedor (Self o Team).
func (s Scope) RestrictsVendors() bool {
	return s.Kind == ScopeSelf || s.Kind == ScopeTeam
}
