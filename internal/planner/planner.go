// Package planner is the decisive layer: it converts candidates and
// inherited conversation state into a deterministic, schema-valid
// ExecutionPlan. No inference happens downstream of it.
package planner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"nugget/internal/domain"
	pipelineerrors "nugget/internal/domain/errors"
	"nugget/internal/registry"
	"nugget/internal/utils"
)

const defaultWindowDays = 7

// Clock supplies "today" for the default date window, kept distinct from
// extractor.Clock so this package has no dependency on it.
type Clock interface{ Today() time.Time }

type realClock struct{}

func (realClock) Today() time.Time { return time.Now() }

var RealClock Clock = realClock{}

type Planner struct {
	registry *registry.Registry
	clock    Clock
}

func New(reg *registry.Registry) *Planner {
	return &Planner{registry: reg, clock: RealClock}
}

func (p *Planner) WithClock(c Clock) *Planner {
	p.clock = c
	return p
}

// Plan builds the ExecutionPlan for one turn. A nil plan with a Clarify
// PipelineError means the caller must surface status=clarify with no
// blocks, per §4.F's failure semantics.
func (p *Planner) Plan(conversationID, propertyID string, extraction domain.ExtractionResult, inherited *domain.ConversationState) (*domain.ExecutionPlan, error) {
	dateRange := p.resolveDateWindow(extraction, inherited)

	metrics, metricsErr := p.resolveMetrics(conversationID, extraction, inherited)
	if metricsErr != nil {
		return nil, metricsErr
	}

	dims := p.resolveDimensions(extraction, metrics)

	blocksByScope := p.splitByScope(metrics, dims)
	if len(blocksByScope) == 0 {
		return nil, pipelineerrors.NewClarify("planner", conversationID, "어떤 지표를 확인하고 싶으신지 말씀해 주세요.")
	}

	blocks := p.buildBlocks(extraction, blocksByScope)
	if len(blocks) == 0 {
		return nil, pipelineerrors.NewClarify("planner", conversationID, "어떤 지표를 확인하고 싶으신지 말씀해 주세요.")
	}

	return &domain.ExecutionPlan{
		PropertyID: propertyID,
		StartDate:  dateRange.StartDate,
		EndDate:    dateRange.EndDate,
		Intent:     extraction.Intent,
		Blocks:     blocks,
	}, nil
}

// Step 1 — resolve date window.
func (p *Planner) resolveDateWindow(extraction domain.ExtractionResult, inherited *domain.ConversationState) domain.DateRange {
	if !extraction.DateRange.IsZero() {
		return extraction.DateRange
	}
	if inherited != nil && inherited.HasDates() {
		return domain.DateRange{StartDate: inherited.StartDate, EndDate: inherited.EndDate}
	}
	today := p.clock.Today()
	start := today.AddDate(0, 0, -defaultWindowDays)
	return domain.DateRange{StartDate: start.Format("2006-01-02"), EndDate: today.Format("2006-01-02")}
}

var userSessionWords = []string{"사용자", "유저", "방문자", "세션"}

// Step 2 — resolve metrics.
func (p *Planner) resolveMetrics(conversationID string, extraction domain.ExtractionResult, inherited *domain.ConversationState) ([]string, error) {
	chosen := p.topCandidates(extraction.MetricCandidates, extraction.Modifiers.ScopeHint)

	if len(chosen) == 0 && extraction.Modifiers.NeedsBreakdown && inherited != nil {
		chosen = append(chosen, inherited.Metrics...)
	}

	if len(chosen) == 0 && extraction.Intent == domain.IntentTrend && containsUserSessionWord(extraction) {
		chosen = []string{"activeUsers"}
	}

	if len(chosen) == 0 {
		hasStrongDim := false
		hasStrongEventDim := false
		for _, d := range extraction.DimensionCandidates {
			if d.Score >= 0.60 {
				hasStrongDim = true
				if d.Scope == domain.ScopeEvent {
					hasStrongEventDim = true
				}
			}
		}
		if !hasStrongDim {
			return nil, pipelineerrors.NewClarify("planner", conversationID,
				"분석할 지표(예: 매출, 사용자 수, 세션)를 알려주시면 답변드릴게요.")
		}
		// A confidently-matched event-scoped dimension with no named metric
		// (e.g. "donation_click의 donation_name 보여줘") defaults to a
		// plain occurrence count rather than forcing a clarify round-trip.
		if hasStrongEventDim {
			chosen = []string{"eventCount"}
		}
	}

	return chosen, nil
}

func containsUserSessionWord(extraction domain.ExtractionResult) bool {
	for _, term := range extraction.EntityTerms {
		for _, w := range userSessionWords {
			if strings.Contains(term, w) {
				return true
			}
		}
	}
	return false
}

// topCandidates keeps every confidently-matched candidate. scopeHint only
// filters within a group of candidates that share a registry category
// (e.g. plain "매출" matching both purchaseRevenue and itemRevenue),
// keeping the ones at the hinted scope; candidates in other categories
// are never dropped. purchaseRevenue and itemRevenue share a category, so
// a multi-scope question like "총 매출과 상품별 매출" keeps its
// event-scoped total block because the extractor sets no scope hint when
// the question contains "총".
func (p *Planner) topCandidates(cands []domain.Candidate, scopeHint domain.Scope) []string {
	byConcept := map[string][]domain.Candidate{}
	var conceptOrder []string
	for _, c := range cands {
		if c.NeedsClarify {
			continue
		}
		concept := p.registry.CategoryOf(c.Name)
		key := string(concept)
		if _, seen := byConcept[key]; !seen {
			conceptOrder = append(conceptOrder, key)
		}
		byConcept[key] = append(byConcept[key], c)
	}

	var names []string
	for _, key := range conceptOrder {
		group := byConcept[key]
		if scopeHint != "" && len(group) > 1 {
			filtered := make([]domain.Candidate, 0, len(group))
			for _, c := range group {
				if c.Scope == scopeHint {
					filtered = append(filtered, c)
				}
			}
			if len(filtered) > 0 {
				group = filtered
			}
		}
		for _, c := range group {
			names = append(names, c.Name)
		}
	}
	return names
}

// Step 3 — resolve dimensions, applying the scope-compatibility filter.
func (p *Planner) resolveDimensions(extraction domain.ExtractionResult, metrics []string) []string {
	scopes := scopeSet(p.registry, metrics)

	var chosen []string
	for _, c := range extraction.DimensionCandidates {
		if c.NeedsClarify {
			continue
		}
		if !scopes[c.Scope] {
			continue
		}
		chosen = append(chosen, c.Name)
	}

	if extraction.Intent == domain.IntentTrend {
		timeDim := "date"
		chosen = prependUnique(chosen, timeDim)
	}
	if extraction.Intent == domain.IntentComparison && hasTwoMonthSignal(extraction) {
		chosen = prependUnique(chosen, "yearMonth")
	}

	return chosen
}

func hasTwoMonthSignal(extraction domain.ExtractionResult) bool {
	return strings.Contains(strings.Join(extraction.EntityTerms, " "), "월") && extraction.Intent == domain.IntentComparison
}

func prependUnique(dims []string, dim string) []string {
	for _, d := range dims {
		if d == dim {
			return dims
		}
	}
	return append([]string{dim}, dims...)
}

func scopeSet(reg *registry.Registry, keys []string) map[domain.Scope]bool {
	out := map[domain.Scope]bool{}
	for _, k := range keys {
		out[reg.ScopeOf(k)] = true
	}
	return out
}

type scopedFields struct {
	scope      domain.Scope
	metrics    []string
	dimensions []string
}

// Step 4 — split chosen metrics/dimensions into one block-group per scope.
func (p *Planner) splitByScope(metrics, dims []string) []scopedFields {
	byScope := map[domain.Scope]*scopedFields{}
	var order []domain.Scope

	for _, m := range metrics {
		s := p.registry.ScopeOf(m)
		if byScope[s] == nil {
			byScope[s] = &scopedFields{scope: s}
			order = append(order, s)
		}
		byScope[s].metrics = append(byScope[s].metrics, m)
	}
	for _, d := range dims {
		if p.registry.CategoryOf(d) == domain.CategoryTime {
			// The time axis (date, yearMonth) is valid at every scope, so
			// every block-group carries it.
			for _, s := range order {
				byScope[s].dimensions = append(byScope[s].dimensions, d)
			}
			continue
		}
		s := p.registry.ScopeOf(d)
		if byScope[s] == nil {
			continue // no metric chosen at this scope: dimension already filtered out in Step 3
		}
		byScope[s].dimensions = append(byScope[s].dimensions, d)
	}

	out := make([]scopedFields, 0, len(order))
	for _, s := range order {
		out = append(out, *byScope[s])
	}
	return out
}

// Steps 5–7 — produce total/breakdown/topn/trend blocks with filters,
// deterministic titles, and block ids.
func (p *Planner) buildBlocks(extraction domain.ExtractionResult, groups []scopedFields) []domain.PlanBlock {
	var blocks []domain.PlanBlock
	idx := 0

	eventToken := detectEventFilterToken(extraction)

	for _, g := range groups {
		if extraction.Modifiers.NeedsTotal && g.scope == domain.ScopeEvent {
			block := domain.PlanBlock{
				BlockType: domain.BlockTotal,
				Scope:     g.scope,
				Metrics:   append([]string(nil), g.metrics...),
			}
			p.applyFilters(&block, extraction, eventToken)
			block.BlockID = blockID(domain.BlockTotal, g.scope, idx)
			block.Title = p.title(domain.BlockTotal, block.Metrics, nil)
			blocks = append(blocks, block)
			idx++
		}

		// needs_breakdown is a whole-question modifier, not scoped to this
		// group; only a group that actually has a chosen dimension gets a
		// breakdown block, or a multi-scope split (§4.F step 4) would also
		// emit a spurious dimensionless breakdown for the total-only scope.
		if len(g.dimensions) == 0 {
			continue
		}

		blockType := domain.BlockBreakdown
		var orderBys []domain.OrderBy
		limit := 0

		switch extraction.Intent {
		case domain.IntentTopN:
			blockType = domain.BlockBreakdownTopN
			limit = utils.DefaultValue(extraction.Modifiers.Limit, 10)
			if len(g.metrics) > 0 {
				orderBys = []domain.OrderBy{{Metric: g.metrics[0], Desc: true}}
			}
		case domain.IntentTrend:
			blockType = domain.BlockTrend
			timeDim := "date"
			if len(g.dimensions) > 0 {
				timeDim = g.dimensions[0]
			}
			orderBys = []domain.OrderBy{{Dimension: timeDim, Desc: false}}
		}

		block := domain.PlanBlock{
			BlockType:  blockType,
			Scope:      g.scope,
			Metrics:    append([]string(nil), g.metrics...),
			Dimensions: append([]string(nil), g.dimensions...),
			OrderBys:   orderBys,
			Limit:      limit,
		}
		p.applyFilters(&block, extraction, eventToken)
		block.BlockID = blockID(blockType, g.scope, idx)
		block.Title = p.title(blockType, block.Metrics, block.Dimensions)
		blocks = append(blocks, block)
		idx++
	}

	return blocks
}

func detectEventFilterToken(extraction domain.ExtractionResult) string {
	for k, v := range extraction.MatchingDebug {
		if k == "event_token" {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Step 6 — filters.
func (p *Planner) applyFilters(block *domain.PlanBlock, extraction domain.ExtractionResult, eventToken string) {
	allEventScoped := block.Scope == domain.ScopeEvent
	hasCustomParamDim := false
	for _, d := range block.Dimensions {
		if strings.HasPrefix(d, "customEvent:") {
			hasCustomParamDim = true
		}
	}
	if eventToken != "" && allEventScoped && hasCustomParamDim {
		block.Filters.EventFilter = eventToken
	}

	if extraction.Modifiers.ExcludeNotset {
		if block.Filters.DimensionFilters == nil {
			block.Filters.DimensionFilters = map[string]string{}
		}
		block.Filters.DimensionFilters["__exclude_notset"] = "true"
	}
}

// Step 7 — deterministic block id and title.
func blockID(t domain.BlockType, scope domain.Scope, index int) string {
	return fmt.Sprintf("%s_%s_%d", t, scope, index)
}

func (p *Planner) title(t domain.BlockType, metrics, dims []string) string {
	metricName := ""
	if len(metrics) > 0 {
		metricName = p.registry.UINameOf(metrics[0])
	}
	if len(dims) == 0 {
		return metricName
	}
	dimName := p.registry.UINameOf(dims[0])
	return fmt.Sprintf("%s별 %s", dimName, metricName)
}

// SortedScopes is exposed for tests asserting deterministic ordering.
func SortedScopes(scopes map[domain.Scope]bool) []domain.Scope {
	out := make([]domain.Scope, 0, len(scopes))
	for s := range scopes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
