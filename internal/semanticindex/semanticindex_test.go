package semanticindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nugget/internal/registry"
)

func TestMatchMetric_FindsSemanticNeighbor(t *testing.T) {
	reg := registry.New()
	idx := Build(reg.AllMetrics(), reg.AllDimensions())

	matches := idx.MatchMetric("방문자 몇명 왔어", 5, 0.20)
	require.NotEmpty(t, matches)
	assert.Equal(t, "activeUsers", matches[0].Name)
}

func TestMatchMetric_NoOverlapReturnsEmpty(t *testing.T) {
	reg := registry.New()
	idx := Build(reg.AllMetrics(), reg.AllDimensions())

	matches := idx.MatchMetric("zzz qqq unrelated", 5, 0.20)
	assert.Empty(t, matches)
}
