package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/ventia/crm-api/internal/domain"
	"github.com/ventia/crm-api/internal/domain/entity"
	"github.com/ventia/crm-api/internal/domain/repository"
)

// PlanCatalog catálogo de planes con caché en memoria de solo lectura.
// La frescura está acotada por TTL (configurable, por defecto 60s). La
// staleness nunca permite ofrecer un plan inactivo para una suscripción
// nueva: GetForNewSubscription relee la fila y verifica el flag Active.
type PlanCatalog struct {
	repo repository.PlanRepository
	ttl  time.Duration

	mu        sync.RWMutex
	plans     []*entity.Plan
	byID      map[string]*entity.Plan
	refreshed time.Time
}

// NewPlanCatalog construye el catálogo. ttlSeconds <= 0 usa 60s.
func NewPlanCatalog(repo repository.PlanRepository, ttlSeconds int) *PlanCatalog {
	if ttlSeconds <= 0 {
		ttlSeconds = 60
	}
	return &PlanCatalog{repo: repo, ttl: time.Duration(ttlSeconds) * time.Second}
}

// List devuelve los planes activos ordenados por display_order (cacheado).
func (c *PlanCatalog) List(ctx context.Context) ([]*entity.Plan, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*entity.Plan, len(c.plans))
	copy(out, c.plans)
	return out, nil
}

// Get devuelve un plan por ID. Sirve planes desactivados (necesarios para
// facturación histórica): primero caché, luego DB.
func (c *PlanCatalog) Get(ctx context.Context, id string) (*entity.Plan, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	p, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}
	p, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// GetForNewSubscription devuelve el plan solo si sigue activo, releyendo de
// DB para no depender de la ventana de staleness del caché.
func (c *PlanCatalog) GetForNewSubscription(ctx context.Context, id string) (*entity.Plan, error) {
	p, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if !p.Active {
		return nil, domain.ErrPlanNotAvailable
	}
	return p, nil
}

// Cheapest devuelve el plan activo más económico (trial sin plan explícito).
func (c *PlanCatalog) Cheapest(ctx context.Context) (*entity.Plan, error) {
	plans, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, domain.ErrPlanNotAvailable
	}
	cheapest := plans[0]
	for _, p := range plans[1:] {
		if p.Price.LessThan(cheapest.Price) {
			cheapest = p
		}
	}
	return cheapest, nil
}

// Compare compara dos planes por ID aplicando la regla estricta de precio.
func (c *PlanCatalog) Compare(ctx context.Context, planAID, planBID string) (entity.PlanComparison, error) {
	a, err := c.Get(ctx, planAID)
	if err != nil {
		return entity.PlanComparison{}, err
	}
	b, err := c.Get(ctx, planBID)
	if err != nil {
		return entity.PlanComparison{}, err
	}
	return entity.ComparePlans(a, b), nil
}

func (c *PlanCatalog) ensureFresh(ctx context.Context) error {
	c.mu.RLock()
	fresh := time.Since(c.refreshed) < c.ttl && c.plans != nil
	c.mu.RUnlock()
	if fresh {
		return nil
	}

	plans, err := c.repo.ListActive(ctx)
	if err != nil {
		// Con caché previa se sigue sirviendo lo conocido antes que fallar
		// una lectura; la venta de planes inactivos ya la evita
		// GetForNewSubscription.
		c.mu.RLock()
		hasOld := c.plans != nil
		c.mu.RUnlock()
		if hasOld {
			return nil
		}
		return err
	}

	byID := make(map[string]*entity.Plan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}
	c.mu.Lock()
	c.plans = plans
	c.byID = byID
	c.refreshed = time.Now()
	c.mu.Unlock()
	return nil
}
