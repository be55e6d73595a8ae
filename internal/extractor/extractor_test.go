package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nugget/internal/domain"
	"nugget/internal/registry"
	"nugget/internal/semanticindex"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Today() time.Time { return f.t }

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	reg := registry.New()
	sem := semanticindex.Build(reg.AllMetrics(), reg.AllDimensions())
	return New(reg, sem)
}

func TestExtract_TotalRevenue(t *testing.T) {
	x := newTestExtractor(t)
	result := x.Extract("총 매출 알려줘", nil)

	require.NotEmpty(t, result.MetricCandidates)
	assert.Equal(t, "purchaseRevenue", result.MetricCandidates[0].Name)
	assert.True(t, result.Modifiers.NeedsTotal)
}

func TestExtract_TrendIntent(t *testing.T) {
	x := newTestExtractor(t)
	result := x.Extract("지난주 사용자 추이 알려줘", nil)

	assert.Equal(t, domain.IntentTrend, result.Intent)
	require.NotEmpty(t, result.MetricCandidates)
	assert.Equal(t, "activeUsers", result.MetricCandidates[0].Name)
}

func TestExtract_RelativeShift(t *testing.T) {
	x := newTestExtractor(t).WithClock(fixedClock{t: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)})
	lastState := &domain.ConversationState{StartDate: "2026-02-09", EndDate: "2026-02-15"}

	result := x.Extract("그 전주 사용자는?", lastState)

	assert.Equal(t, "2026-02-02", result.DateRange.StartDate)
	assert.Equal(t, "2026-02-08", result.DateRange.EndDate)
	assert.True(t, result.DateRange.IsRelativeShift)
}

func TestExtract_ClarifyOnNoMatch(t *testing.T) {
	x := newTestExtractor(t)
	result := x.Extract("xyz zzz", nil)

	assert.Empty(t, result.MetricCandidates)
}

func TestExtract_BreakdownWithEventFilterToken(t *testing.T) {
	x := newTestExtractor(t)
	result := x.Extract("donation_click의 donation_name 보여줘", nil)

	// No 별/기준/따라 marker and no multi-metric signal, so this stays the
	// default single-metric intent; the breakdown shape comes from the
	// planner choosing a dimension candidate, not from intent classification.
	assert.Equal(t, domain.IntentMetricSingle, result.Intent)
	event := extractEventNameToken("donation_click의 donation_name 보여줘")
	assert.Equal(t, "donation_click", event)
}
