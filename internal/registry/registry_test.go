package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"nugget/internal/domain"
)

func TestResolveMetricsInQuestion(t *testing.T) {
	r := New()

	keys := r.ResolveMetricsInQuestion("매출 알려줘")
	assert.Contains(t, keys, "purchaseRevenue")

	keys = r.ResolveMetricsInQuestion("  사용자  몇명이야")
	assert.Contains(t, keys, "activeUsers")

	keys = r.ResolveMetricsInQuestion("x")
	assert.Empty(t, keys, "single-character matches must be rejected")

	keys = r.ResolveMetricsInQuestion("완전히 모르는 단어")
	assert.Empty(t, keys)

	// A multi-word alias/kr_semantics entry must match regardless of where
	// the question places its spaces, since containment runs against the
	// despaced whole question rather than per-token equality.
	keys = r.ResolveMetricsInQuestion("총 매출과 상품별 매출 알려줘")
	assert.Contains(t, keys, "purchaseRevenue")
	assert.Contains(t, keys, "itemRevenue")
}

func TestResolveDimensionsInQuestion(t *testing.T) {
	r := New()

	keys := r.ResolveDimensionsInQuestion("채널별로 보여줘")
	assert.Contains(t, keys, "defaultChannelGroup")

	keys = r.ResolveDimensionsInQuestion("donation_name 알려줘")
	assert.Contains(t, keys, "customEvent:donation_name")

	// A particle fused onto the token ("의") must not block containment.
	keys = r.ResolveDimensionsInQuestion("donation_click의 donation_name 보여줘")
	assert.Contains(t, keys, "customEvent:donation_name")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"  Donation_Name ", "상품-명/", "AlreadyLower"}
	for _, in := range inputs {
		once := normalize(in)
		twice := normalize(once)
		assert.Equal(t, once, twice)
	}
}

func TestScopeOf(t *testing.T) {
	r := New()
	assert.Equal(t, domain.ScopeEvent, r.ScopeOf("purchaseRevenue"))
	assert.Equal(t, domain.ScopeItem, r.ScopeOf("itemRevenue"))
	assert.Equal(t, domain.ScopeUser, r.ScopeOf("activeUsers"))
}

func TestSortCandidates(t *testing.T) {
	r := New()
	cands := []domain.Candidate{
		{Name: "totalUsers", Score: 0.9},
		{Name: "activeUsers", Score: 0.9},
		{Name: "sessions", Score: 0.5},
	}
	r.SortCandidates(cands)
	// activeUsers has higher priority (5) than totalUsers (3) at equal score.
	assert.Equal(t, "activeUsers", cands[0].Name)
	assert.Equal(t, "totalUsers", cands[1].Name)
	assert.Equal(t, "sessions", cands[2].Name)
}
