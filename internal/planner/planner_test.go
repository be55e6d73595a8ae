package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nugget/internal/domain"
	"nugget/internal/extractor"
	"nugget/internal/registry"
	"nugget/internal/semanticindex"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Today() time.Time { return f.t }

func newPipeline(t *testing.T) (*extractor.Extractor, *Planner, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	sem := semanticindex.Build(reg.AllMetrics(), reg.AllDimensions())
	x := extractor.New(reg, sem)
	p := New(reg)
	return x, p, reg
}

func TestPlan_TotalRevenue(t *testing.T) {
	x, p, _ := newPipeline(t)
	extraction := x.Extract("총 매출 알려줘", nil)

	plan, err := p.Plan("conv-1", "prop-1", extraction, nil)
	require.NoError(t, err)
	require.Len(t, plan.Blocks, 1)
	assert.Equal(t, domain.BlockTotal, plan.Blocks[0].BlockType)
	assert.Equal(t, []string{"purchaseRevenue"}, plan.Blocks[0].Metrics)
	assert.Empty(t, plan.Blocks[0].Dimensions, "total blocks always have zero dimensions")
}

func TestPlan_TrendHasTimeDimensionFirst(t *testing.T) {
	x, p, _ := newPipeline(t)
	x = x.WithClock(fixedClock{t: time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)})
	p = p.WithClock(fixedClock{t: time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)})

	extraction := x.Extract("지난주 사용자 추이 알려줘", nil)
	plan, err := p.Plan("conv-1", "prop-1", extraction, nil)
	require.NoError(t, err)
	require.Len(t, plan.Blocks, 1)
	block := plan.Blocks[0]
	assert.Equal(t, domain.BlockTrend, block.BlockType)
	require.Len(t, block.Dimensions, 1)
	assert.Equal(t, "date", block.Dimensions[0])
	assert.Equal(t, []string{"activeUsers"}, block.Metrics)
}

func TestPlan_MultiScopeSplit(t *testing.T) {
	x, p, _ := newPipeline(t)
	extraction := x.Extract("총 매출과 상품별 매출 알려줘", nil)

	plan, err := p.Plan("conv-1", "prop-1", extraction, nil)
	require.NoError(t, err)
	require.Len(t, plan.Blocks, 2, "expected one event-scope total block and one item-scope breakdown block")

	var total, breakdown *domain.PlanBlock
	for i := range plan.Blocks {
		b := &plan.Blocks[i]
		switch b.BlockType {
		case domain.BlockTotal:
			total = b
		case domain.BlockBreakdown:
			breakdown = b
		}
	}

	require.NotNil(t, total, "expected a total block")
	assert.Equal(t, domain.ScopeEvent, total.Scope)
	assert.Equal(t, []string{"purchaseRevenue"}, total.Metrics)
	assert.Empty(t, total.Dimensions)

	require.NotNil(t, breakdown, "expected an item-scope breakdown block")
	assert.Equal(t, domain.ScopeItem, breakdown.Scope)
	assert.Equal(t, []string{"itemRevenue"}, breakdown.Metrics)
	assert.Equal(t, []string{"itemName"}, breakdown.Dimensions)
}

func TestPlan_EventFilterFromFusedEventToken(t *testing.T) {
	x, p, _ := newPipeline(t)
	extraction := x.Extract("donation_click의 donation_name 보여줘", nil)

	plan, err := p.Plan("conv-1", "prop-1", extraction, nil)
	require.NoError(t, err)
	require.Len(t, plan.Blocks, 1)
	block := plan.Blocks[0]
	assert.Equal(t, domain.BlockBreakdown, block.BlockType)
	assert.Equal(t, []string{"eventCount"}, block.Metrics)
	assert.Equal(t, []string{"customEvent:donation_name"}, block.Dimensions)
	assert.Equal(t, "donation_click", block.Filters.EventFilter)
}

func TestPlan_ClarifyOnNoMatch(t *testing.T) {
	x, p, _ := newPipeline(t)
	extraction := x.Extract("xyz zzz", nil)

	_, err := p.Plan("conv-1", "prop-1", extraction, nil)
	require.Error(t, err)
}

func TestPlan_ScopeCompatibilityInvariant(t *testing.T) {
	x, p, reg := newPipeline(t)
	extraction := x.Extract("총 매출과 상품별 매출 알려줘", nil)

	plan, err := p.Plan("conv-1", "prop-1", extraction, nil)
	require.NoError(t, err)
	for _, b := range plan.Blocks {
		for _, m := range b.Metrics {
			assert.Equal(t, b.Scope, reg.ScopeOf(m))
		}
		for _, d := range b.Dimensions {
			assert.Equal(t, b.Scope, reg.ScopeOf(d))
		}
	}
}
