package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nugget/internal/domain"
	"nugget/internal/registry"
)

func TestFormatValue_RevenueUnit(t *testing.T) {
	assert.Equal(t, "1,234,000원", formatValue(domain.NumValue(1234000), "원"))
}

func TestFormatValue_RateUnitScalesFraction(t *testing.T) {
	assert.Equal(t, "45.50%", formatValue(domain.NumValue(0.455), "%"))
}

func TestFormatValue_IdempotentOnRepeatedNumericInput(t *testing.T) {
	first := formatValue(domain.NumValue(987654), "원")
	second := formatValue(domain.NumValue(987654), "원")
	assert.Equal(t, first, second)
}

func TestRenderYearMonth_CompactToISO(t *testing.T) {
	assert.Equal(t, "2026-07", renderYearMonth("202607"))
}

func TestTopicParticle_FinalConsonant(t *testing.T) {
	assert.Equal(t, "은", topicParticle("세션"))
	assert.Equal(t, "는", topicParticle("사용자"))
}

func TestAdapt_TotalBlockMessage(t *testing.T) {
	reg := registry.New()
	a := New(reg)

	blocks := []domain.BlockResult{
		{BlockID: "total_event_0", Title: "구매 수익", Type: domain.BlockTotal,
			Total: map[string]domain.Value{"purchaseRevenue": domain.NumValue(500000)}},
	}
	resp := a.Adapt("이번달 총 매출 알려줘", blocks, "acc-1", "2026-07-01~2026-07-31")
	require.Equal(t, domain.StatusOK, resp.Status)
	assert.Contains(t, resp.Message, "구매 수익")
	assert.Contains(t, resp.Message, "500,000원")
}

func TestAdapt_DropsBlankLikeDimensionRows(t *testing.T) {
	reg := registry.New()
	a := New(reg)

	blocks := []domain.BlockResult{
		{BlockID: "breakdown_event_0", Title: "후원명별 매출", Type: domain.BlockBreakdown,
			Rows: []domain.Row{
				{"customEvent:donation_name": domain.StrValue("(not set)"), "purchaseRevenue": domain.NumValue(100)},
				{"customEvent:donation_name": domain.StrValue("희망후원"), "purchaseRevenue": domain.NumValue(900)},
			}},
	}
	resp := a.Adapt("후원명별 매출 알려줘", blocks, "acc-1", "2026-07-01~2026-07-31")
	require.Len(t, resp.Blocks, 1)
	require.Len(t, resp.Blocks[0].Rows, 1)
	assert.Equal(t, "희망후원", resp.Blocks[0].Rows[0]["customEvent:donation_name"].Str)
}

func TestAdapt_EmptyBlocksIsError(t *testing.T) {
	reg := registry.New()
	a := New(reg)
	resp := a.Adapt("아무 질문", nil, "acc-1", "")
	assert.Equal(t, domain.StatusError, resp.Status)
}

func TestExtractPlotData_TrendSortsByDateAscending(t *testing.T) {
	reg := registry.New()
	a := New(reg)

	blocks := []domain.BlockResult{
		{BlockID: "trend_event_0", Title: "추이", Type: domain.BlockTrend,
			Rows: []domain.Row{
				{"date": domain.StrValue("2026-07-03"), "activeUsers": domain.NumValue(30)},
				{"date": domain.StrValue("2026-07-01"), "activeUsers": domain.NumValue(10)},
				{"date": domain.StrValue("2026-07-02"), "activeUsers": domain.NumValue(20)},
			}},
	}
	chart := a.extractPlotData(blocks)
	require.Equal(t, "line", chart.Type)
	require.Equal(t, []string{"2026-07-01", "2026-07-02", "2026-07-03"}, chart.Labels)
}

func TestBuildNamedRatioMessage_SplitsKnownKeywords(t *testing.T) {
	rows := []domain.Row{
		{"customEvent:donation_name": domain.StrValue("정기후원"), "purchaseRevenue": domain.NumValue(700)},
		{"customEvent:donation_name": domain.StrValue("일시후원"), "purchaseRevenue": domain.NumValue(300)},
	}
	msg := buildNamedRatioMessage("정기후원과 일시후원 비중 알려줘", rows)
	assert.Contains(t, msg, "정기후원")
	assert.Contains(t, msg, "일시후원")
}
