package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nugget/internal/analytics"
	"nugget/internal/domain"
)

func TestExecute_TotalBlock(t *testing.T) {
	port := analytics.NewFakePort()
	e := New(port)

	plan := &domain.ExecutionPlan{
		PropertyID: "p1", StartDate: "2026-01-01", EndDate: "2026-01-07",
		Blocks: []domain.PlanBlock{
			{BlockID: "total_event_0", BlockType: domain.BlockTotal, Scope: domain.ScopeEvent, Metrics: []string{"purchaseRevenue"}},
		},
	}

	result, err := e.Execute(context.Background(), "conv-1", plan)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 1)
	assert.True(t, result.Blocks[0].Total["purchaseRevenue"].IsNum)
}

func TestExecute_ErrorsOnlyWhenEveryBlockFails(t *testing.T) {
	port := analytics.NewFakePort()
	e := New(port)

	plan := &domain.ExecutionPlan{
		PropertyID: "p1", StartDate: "2026-01-01", EndDate: "2026-01-07",
		Blocks: []domain.PlanBlock{
			{BlockID: "total_event_0", BlockType: domain.BlockTotal, Scope: domain.ScopeEvent, Metrics: []string{"purchaseRevenue"}},
			{BlockID: "breakdown_item_1", BlockType: domain.BlockBreakdown, Scope: domain.ScopeItem, Metrics: []string{"itemRevenue"}, Dimensions: []string{"itemName"}},
		},
	}

	port.Err = nil
	result, err := e.Execute(context.Background(), "conv-1", plan)
	require.NoError(t, err)
	assert.Len(t, result.Blocks, 2)

	port2 := analytics.NewFakePort()
	port2.Err = errors.New("boom")
	e2 := New(port2)
	result2, err2 := e2.Execute(context.Background(), "conv-1", plan)
	require.Error(t, err2, "every block failing surfaces an error")
	assert.Empty(t, result2.Blocks)
}

func TestCoerceNumeric_StripsNonNumeric(t *testing.T) {
	f, ok := coerceNumeric("1,234원")
	require.True(t, ok)
	assert.Equal(t, 1234.0, f)
}
