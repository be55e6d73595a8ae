package statepolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"nugget/internal/domain"
)

func baseState() *domain.ConversationState {
	return &domain.ConversationState{
		Metrics:    []string{"activeUsers"},
		Dimensions: []string{"defaultChannelGroup"},
		StartDate:  "2026-01-01",
		EndDate:    "2026-01-07",
	}
}

func TestApply_Refine(t *testing.T) {
	out := Apply(domain.RelationRefine, baseState())
	assert.Equal(t, []string{"activeUsers"}, out.Metrics)
	assert.Equal(t, []string{"defaultChannelGroup"}, out.Dimensions)
	assert.Equal(t, "2026-01-01", out.StartDate)
}

func TestApply_NewTopicDropsMetricsAndDims(t *testing.T) {
	out := Apply(domain.RelationNewTopic, baseState())
	assert.Empty(t, out.Metrics)
	assert.Empty(t, out.Dimensions)
	assert.Equal(t, "2026-01-01", out.StartDate, "dates are always inheritable")
}

func TestApply_MetricSwitchDropsMetricsOnly(t *testing.T) {
	out := Apply(domain.RelationMetricSwitch, baseState())
	assert.Empty(t, out.Metrics)
	assert.Equal(t, []string{"defaultChannelGroup"}, out.Dimensions)
}

func TestApply_DimensionSwitchDropsDimsOnly(t *testing.T) {
	out := Apply(domain.RelationDimensionSwitch, baseState())
	assert.Equal(t, []string{"activeUsers"}, out.Metrics)
	assert.Empty(t, out.Dimensions)
}

func TestApply_NilLastState(t *testing.T) {
	assert.Nil(t, Apply(domain.RelationRefine, nil))
}

func TestApplyEntityMemory(t *testing.T) {
	state := baseState()
	state.LastEntity = &domain.EntityMemory{Dimension: "itemName", Value: "텀블러"}

	dim, val, ok := ApplyEntityMemory("그 상품 매출은 얼마야", state)
	assert.True(t, ok)
	assert.Equal(t, "itemName", dim)
	assert.Equal(t, "텀블러", val)
}

func TestGuardSourceChange(t *testing.T) {
	state := baseState()
	assert.Nil(t, GuardSourceChange(SourceAnalytics, SourceFile, state))
	assert.Same(t, state, GuardSourceChange(SourceAnalytics, SourceAnalytics, state))
}
