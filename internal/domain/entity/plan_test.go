package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ventia/crm-api/internal/domain/entity"
)

func plan(price float64, maxUsers int) *entity.Plan {
	return &entity.Plan{
		Price:    decimal.NewFromFloat(price),
		MaxUsers: maxUsers,
		MaxLeads: maxUsers * 100,
	}
}

// La clasificación upgrade/downgrade es estrictamente por precio: los límites
// no entran en la decisión, solo informan los deltas.
func TestComparePlans_PrecioMayorEsUpgrade(t *testing.T) {
	cmp := entity.ComparePlans(plan(19, 3), plan(49, 15))

	assert.True(t, cmp.IsUpgrade)
	assert.True(t, cmp.PriceDelta.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 12, cmp.LimitDeltas[entity.MetricUsers])
}

func TestComparePlans_PrecioMenorEsDowngrade(t *testing.T) {
	cmp := entity.ComparePlans(plan(49, 15), plan(19, 3))

	assert.False(t, cmp.IsUpgrade)
	assert.True(t, cmp.PriceDelta.Equal(decimal.NewFromInt(-30)))
}

func TestComparePlans_PrecioIgualNoEsUpgrade(t *testing.T) {
	// Mismo precio con más límites NO es upgrade: la regla es precio estricto,
	// así un cambio lateral nunca dispara facturación prorrateada.
	cmp := entity.ComparePlans(plan(49, 10), plan(49, 50))

	assert.False(t, cmp.IsUpgrade)
	assert.True(t, cmp.PriceDelta.IsZero())
	assert.Equal(t, 40, cmp.LimitDeltas[entity.MetricUsers])
}

func TestComparePlans_Antisimetria(t *testing.T) {
	a, b := plan(19, 3), plan(129, 100)

	ab := entity.ComparePlans(a, b)
	ba := entity.ComparePlans(b, a)

	assert.True(t, ab.IsUpgrade)
	assert.False(t, ba.IsUpgrade)
	assert.True(t, ab.PriceDelta.Equal(ba.PriceDelta.Neg()))
}

func TestPlanLimit_MetricaDesconocida(t *testing.T) {
	p := plan(19, 3)
	assert.Equal(t, -1, p.Limit("otra-cosa"))
	assert.Equal(t, 3, p.Limit(entity.MetricUsers))
}
