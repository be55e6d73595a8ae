// Package registry is the static metadata catalog of analytics metrics
// and dimensions: keys, UI names, aliases, categories, scopes, and
// priorities used to resolve question tokens into schema-valid fields.
package registry

import (
	"sort"
	"strings"

	"nugget/internal/domain"
)

// Registry is an immutable, read-only-after-load catalog. It is safe for
// concurrent use without locking once built.
type Registry struct {
	metrics    map[string]domain.MetricDef
	dimensions map[string]domain.DimensionDef
	order      []string // insertion order, for tie-breaking by registry order
}

// New builds the registry from the GA4-shaped catalog baked into this
// package. A subset sufficient to exercise every scope-compatibility rule
// and domain synthesizer named in the spec.
func New() *Registry {
	r := &Registry{
		metrics:    make(map[string]domain.MetricDef),
		dimensions: make(map[string]domain.DimensionDef),
	}
	for _, m := range defaultMetrics() {
		r.metrics[m.Key] = m
		r.order = append(r.order, m.Key)
	}
	for _, d := range defaultDimensions() {
		r.dimensions[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r
}

func defaultMetrics() []domain.MetricDef {
	return []domain.MetricDef{
		{Key: "activeUsers", UIName: "활성 사용자", Aliases: []string{"사용자", "유저", "방문자", "사람", "명수", "접속자"},
			KRSemantics: []string{"사용자수", "방문자수", "몇명"}, Category: domain.CategoryUser, Scope: domain.ScopeUser, Priority: 5, Concept: "user"},
		{Key: "newUsers", UIName: "신규 사용자", Aliases: []string{"신규", "처음", "새로운"},
			KRSemantics: []string{"신규유저", "첫 방문"}, Category: domain.CategoryUser, Scope: domain.ScopeUser, Priority: 5, Concept: "user"},
		{Key: "totalUsers", UIName: "총 사용자 수", Aliases: []string{"전체사용자", "누적사용자", "총유저"},
			KRSemantics: []string{"누적", "전체"}, Category: domain.CategoryUser, Scope: domain.ScopeUser, Priority: 3, Concept: "user"},
		{Key: "sessions", UIName: "세션", Aliases: []string{"세션", "방문수", "접속", "연결"},
			KRSemantics: []string{"방문횟수", "세션수"}, Category: domain.CategoryTraffic, Scope: domain.ScopeUser, Priority: 5, Concept: "traffic"},
		{Key: "eventCount", UIName: "이벤트 수", Aliases: []string{"이벤트횟수", "건수", "발생수", "횟수"},
			KRSemantics: []string{"몇번", "몇 번", "발생"}, Category: domain.CategoryEvent, Scope: domain.ScopeEvent, Priority: 5, Concept: "event"},
		{Key: "purchaseRevenue", UIName: "구매 수익", Aliases: []string{"수익", "매출", "금액", "돈"},
			KRSemantics: []string{"매출", "수익", "revenue"}, Category: domain.CategoryEcommerce, Scope: domain.ScopeEvent, Priority: 5, Concept: "ecommerce"},
		{Key: "itemRevenue", UIName: "상품 수익", Aliases: []string{"상품매출", "아이템매출", "상품별매출", "제품매출", "상품수익"},
			KRSemantics: []string{"상품 수익", "아이템 매출", "상품별 매출"}, Category: domain.CategoryEcommerce, Scope: domain.ScopeItem, Priority: 5, Concept: "ecommerce"},
		{Key: "itemsPurchased", UIName: "구매한 상품 수", Aliases: []string{"구매항목", "구매상품", "상품수"},
			KRSemantics: []string{"상품개수", "몇개샀는지", "많이팔린"}, Category: domain.CategoryEcommerce, Scope: domain.ScopeItem, Priority: 4, Concept: "ecommerce"},
		{Key: "ecommercePurchases", UIName: "전자상거래 구매 건수", Aliases: []string{"이커머스구매", "구매완료수"},
			KRSemantics: []string{"전자상거래 구매"}, Category: domain.CategoryEcommerce, Scope: domain.ScopeEvent, Priority: 4, Concept: "ecommerce"},
	}
}

func defaultDimensions() []domain.DimensionDef {
	return []domain.DimensionDef{
		{Key: "date", UIName: "날짜", Aliases: []string{"날짜", "일자"}, KRSemantics: []string{"언제", "기간", "일별"},
			Category: domain.CategoryTime, Scope: domain.ScopeEvent, Priority: 5},
		{Key: "yearMonth", UIName: "연도 월", Aliases: []string{"연월"}, Category: domain.CategoryTime, Scope: domain.ScopeEvent, Priority: 3},
		{Key: "eventName", UIName: "이벤트 이름", Aliases: []string{"이벤트"}, KRSemantics: []string{"가입", "구매", "클릭", "전환"},
			Category: domain.CategoryEvent, Scope: domain.ScopeEvent, Priority: 5},
		{Key: "defaultChannelGroup", UIName: "기본 채널 그룹", Aliases: []string{"채널"}, KRSemantics: []string{"채널별"},
			Category: domain.CategoryTraffic, Scope: domain.ScopeUser, Priority: 5},
		{Key: "sessionSource", UIName: "소스", Aliases: []string{"소스", "유입경로"}, Category: domain.CategoryTraffic, Scope: domain.ScopeUser, Priority: 4},
		{Key: "deviceCategory", UIName: "기기 카테고리", Aliases: []string{"디바이스", "기기"}, KRSemantics: []string{"모바일", "PC", "태블릿"},
			Category: domain.CategoryDevice, Scope: domain.ScopeUser, Priority: 4},
		{Key: "country", UIName: "국가", Aliases: []string{"나라"}, KRSemantics: []string{"국가별"},
			Category: domain.CategoryGeo, Scope: domain.ScopeUser, Priority: 4},
		{Key: "itemName", UIName: "항목 이름", Aliases: []string{"상품명", "제품명"}, KRSemantics: []string{"아이템이름", "상품별", "아이템별", "제품별"},
			Category: domain.CategoryEcommerce, Scope: domain.ScopeItem, Priority: 5},
		{Key: "customEvent:is_regular_donation", UIName: "정기후원 여부",
			Aliases: []string{"is_regular_donation", "정기후원여부", "정기후원", "정기/일시"},
			KRSemantics: []string{"정기후원", "일시후원"}, Category: domain.CategoryEvent, Scope: domain.ScopeEvent, Priority: 5},
		{Key: "customEvent:donation_name", UIName: "후원명", Aliases: []string{"donation_name", "후원명", "후원이름"},
			KRSemantics: []string{"후원명"}, Category: domain.CategoryEvent, Scope: domain.ScopeEvent, Priority: 5},
	}
}

// normalize lowercases and strips whitespace/hyphen/underscore/slash
// punctuation, and is idempotent: normalize(normalize(x)) == normalize(x).
func normalize(token string) string {
	lower := strings.ToLower(strings.TrimSpace(token))
	var b strings.Builder
	for _, r := range lower {
		switch r {
		case ' ', '\t', '\n', '-', '_', '/':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchesField reports whether any of f's key/ui_name/aliases/kr_semantics,
// once normalized, appears as a substring of normQuestion — the whole
// question, already normalized by the caller. This mirrors the original
// parser's `alias.lower() in q_lower` containment scan rather than
// per-token equality, so a multi-word alias like "상품별 매출" still
// matches regardless of where the question happens to put its spaces.
func matchesField(f domain.FieldDef, normQuestion string) bool {
	names := make([]string, 0, 2+len(f.Aliases)+len(f.KRSemantics))
	names = append(names, f.Key, f.UIName)
	names = append(names, f.Aliases...)
	names = append(names, f.KRSemantics...)
	for _, n := range names {
		norm := normalize(n)
		if len([]rune(norm)) <= 1 {
			continue
		}
		if strings.Contains(normQuestion, norm) {
			return true
		}
	}
	return false
}

// ResolveMetricsInQuestion scans the whole normalized question for every
// metric whose key/ui_name/alias/kr_semantics appears in it, in registry
// order. Multiple metrics may match the same question (e.g. "총 매출과
// 상품별 매출" matches both purchaseRevenue and itemRevenue).
func (r *Registry) ResolveMetricsInQuestion(question string) []string {
	normQuestion := normalize(question)
	var out []string
	for _, key := range r.order {
		m, ok := r.metrics[key]
		if ok && matchesField(m, normQuestion) {
			out = append(out, m.Key)
		}
	}
	return out
}

// ResolveDimensionsInQuestion is the dimension counterpart of
// ResolveMetricsInQuestion.
func (r *Registry) ResolveDimensionsInQuestion(question string) []string {
	normQuestion := normalize(question)
	var out []string
	for _, key := range r.order {
		d, ok := r.dimensions[key]
		if ok && matchesField(d, normQuestion) {
			out = append(out, d.Key)
		}
	}
	return out
}

func (r *Registry) Metric(key string) (domain.MetricDef, bool) {
	m, ok := r.metrics[key]
	return m, ok
}

func (r *Registry) Dimension(key string) (domain.DimensionDef, bool) {
	d, ok := r.dimensions[key]
	return d, ok
}

func (r *Registry) ScopeOf(key string) domain.Scope {
	if m, ok := r.metrics[key]; ok {
		return m.Scope
	}
	if d, ok := r.dimensions[key]; ok {
		return d.Scope
	}
	return ""
}

func (r *Registry) CategoryOf(key string) domain.Category {
	if m, ok := r.metrics[key]; ok {
		return m.Category
	}
	if d, ok := r.dimensions[key]; ok {
		return d.Category
	}
	return ""
}

func (r *Registry) PriorityOf(key string) int {
	if m, ok := r.metrics[key]; ok {
		return m.Priority
	}
	if d, ok := r.dimensions[key]; ok {
		return d.Priority
	}
	return 0
}

func (r *Registry) UINameOf(key string) string {
	if m, ok := r.metrics[key]; ok {
		return m.UIName
	}
	if d, ok := r.dimensions[key]; ok {
		return d.UIName
	}
	return key
}

// AllMetrics returns every metric definition in registry order.
func (r *Registry) AllMetrics() []domain.MetricDef {
	out := make([]domain.MetricDef, 0, len(r.metrics))
	for _, key := range r.order {
		if m, ok := r.metrics[key]; ok {
			out = append(out, m)
		}
	}
	return out
}

// AllDimensions returns every dimension definition in registry order.
func (r *Registry) AllDimensions() []domain.DimensionDef {
	out := make([]domain.DimensionDef, 0, len(r.dimensions))
	for _, key := range r.order {
		if d, ok := r.dimensions[key]; ok {
			out = append(out, d)
		}
	}
	return out
}

// RegistryOrder returns the position of key in registry insertion order,
// used as the final tie-break after score and priority when ranking
// candidates.
func (r *Registry) RegistryOrder(key string) int {
	for i, k := range r.order {
		if k == key {
			return i
		}
	}
	return len(r.order)
}

// SortCandidates orders candidates by score desc, then priority desc,
// then registry order asc, per §3's Candidate ordering rule.
func (r *Registry) SortCandidates(cands []domain.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		pi, pj := r.PriorityOf(cands[i].Name), r.PriorityOf(cands[j].Name)
		if pi != pj {
			return pi > pj
		}
		return r.RegistryOrder(cands[i].Name) < r.RegistryOrder(cands[j].Name)
	})
}
