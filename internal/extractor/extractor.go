// Package extractor turns a raw Korean question into the Candidate
// Extractor's output: intent, scored metric/dimension candidates, a date
// range, modifiers, and entity terms.
package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"nugget/internal/domain"
	"nugget/internal/registry"
	"nugget/internal/rules"
	"nugget/internal/semanticindex"
)

const (
	semanticHigh = 0.40
	semanticMid  = 0.25
	maxMetrics   = 5
)

// Extractor is stateless and safe for concurrent use: it holds only
// read-only references to the registry, semantic index, and rule table.
type Extractor struct {
	registry *registry.Registry
	semantic *semanticindex.Index
	rules    *rules.Evaluator
	clock    Clock

	intentTable []rules.Rule
}

func New(reg *registry.Registry, sem *semanticindex.Index) *Extractor {
	return &Extractor{
		registry: reg,
		semantic: sem,
		rules:    rules.NewEvaluator(),
		clock:    RealClock,
		intentTable: []rules.Rule{
			{Name: string(domain.IntentCategoryList), Predicate: "hasCategoryListToken"},
			{Name: string(domain.IntentTrend), Predicate: "hasTrendToken"},
			{Name: string(domain.IntentComparison), Predicate: "hasComparisonToken"},
			{Name: string(domain.IntentTopN), Predicate: "hasTopNToken"},
			{Name: string(domain.IntentBreakdown), Predicate: "hasBreakdownToken"},
			{Name: string(domain.IntentMetricMulti), Predicate: "hasMultipleMetrics"},
		},
	}
}

// WithClock overrides the date-parsing clock, for deterministic tests.
func (x *Extractor) WithClock(c Clock) *Extractor {
	x.clock = c
	return x
}

var (
	categoryListRe  = regexp.MustCompile(`종류|무슨\s*이벤트|어떤\s*이벤트`)
	trendTokenRe    = regexp.MustCompile(`추이|흐름|일별|변화|trend|daily`)
	comparisonRe    = regexp.MustCompile(`전주\s*대비|비교|차이|증감|vs`)
	topNRe          = regexp.MustCompile(`상위|top|\d+\s*위`)
	breakdownRe     = regexp.MustCompile(`별|기준|따라|by\s`)
	topNLimitRe     = regexp.MustCompile(`(\d+)\s*위|top\s*(\d+)`)
	metricLikeRe    = regexp.MustCompile(`매출|사용자|수익|세션|클릭|전환|방문`)
	dimensionLikeRe = regexp.MustCompile(`채널|디바이스|국가|이벤트|상품|연령|성별`)
)

// Extract runs the full candidate-extraction pipeline for one question.
func (x *Extractor) Extract(question string, lastState *domain.ConversationState) domain.ExtractionResult {
	q := strings.ToLower(question)
	vars := map[string]any{
		"hasCategoryListToken": categoryListRe.MatchString(q),
		"hasTrendToken":        trendTokenRe.MatchString(q),
		"hasComparisonToken":   comparisonRe.MatchString(q),
		"hasTopNToken":         topNRe.MatchString(q),
		"hasBreakdownToken":    breakdownRe.MatchString(q),
	}

	metricCands := x.matchCandidates(question, true)
	vars["hasMultipleMetrics"] = countDistinct(metricCands) > 1

	intentName, _ := x.rules.FirstMatch(x.intentTable, vars)
	intent := domain.Intent(intentName)
	if intent == "" {
		intent = domain.IntentMetricSingle
	}

	dimCands := x.matchCandidates(question, false)

	mods := domain.Modifiers{}
	if intent == domain.IntentTopN {
		mods.Limit = extractTopNLimit(q)
	}
	if strings.Contains(q, "전체") || strings.Contains(q, "모두") {
		mods.Limit = 1000
	}
	if containsAny(q, "별", "기준", "따라") {
		mods.NeedsBreakdown = true
	}
	if strings.Contains(q, "총") {
		mods.NeedsTotal = true
	}
	if strings.Contains(q, "제외") && strings.Contains(q, "미수집") {
		mods.ExcludeNotset = true
	}
	// scope_hint only disambiguates a single ambiguous mention (e.g. bare
	// "매출"); a question that already names both a total and a
	// breakdown (multi-scope split) must not let this collapse either
	// scope's metrics, so it only fires when there is no "총" signal.
	if !mods.NeedsTotal {
		if strings.Contains(q, "이벤트") {
			mods.ScopeHint = domain.ScopeEvent
		} else if strings.Contains(q, "상품") {
			mods.ScopeHint = domain.ScopeItem
		}
	}

	entityTerms := extractEntityTerms(question)
	mods.EntityContains = entityTerms

	dateRange := parseDateRange(question, lastState, x.clock)

	// Follow-up inheritance rule (§4.C): short metric_single follow-ups
	// with no dimension signal re-request the last breakdown.
	if lastState != nil && intent == domain.IntentMetricSingle &&
		utf8.RuneCountInString(question) <= 20 &&
		metricLikeRe.MatchString(q) && !dimensionLikeRe.MatchString(q) &&
		len(lastState.Dimensions) > 0 {
		mods.NeedsBreakdown = true
		for _, d := range lastState.Dimensions {
			dimCands = append(dimCands, domain.Candidate{
				Name: d, Score: 0.98, MatchedBy: domain.MatchedSynthetic, Scope: x.registry.ScopeOf(d),
			})
		}
	}

	debug := map[string]any{
		"intent_rule_vars": vars,
		"normalized":       q,
		"event_token":      extractEventNameToken(question),
	}

	return domain.ExtractionResult{
		Intent:              intent,
		MetricCandidates:    metricCands,
		DimensionCandidates: dimCands,
		DateRange:           dateRange,
		Modifiers:           mods,
		EntityTerms:         entityTerms,
		MatchingDebug:       debug,
	}
}

func extractTopNLimit(q string) int {
	m := topNLimitRe.FindStringSubmatch(q)
	if m == nil {
		return 10
	}
	for _, g := range m[1:] {
		if g != "" {
			n := 0
			for _, r := range g {
				n = n*10 + int(r-'0')
			}
			if n > 0 {
				return n
			}
		}
	}
	return 10
}

func countDistinct(cands []domain.Candidate) int {
	seen := map[string]struct{}{}
	for _, c := range cands {
		if c.Score >= semanticHigh || c.MatchedBy == domain.MatchedExplicit {
			seen[c.Name] = struct{}{}
		}
	}
	return len(seen)
}

// matchCandidates runs explicit substring matching first, then falls back
// to semantic cosine similarity for tokens the explicit pass missed.
// isMetric selects which registry half and semantic space to use.
func (x *Extractor) matchCandidates(question string, isMetric bool) []domain.Candidate {
	var out []domain.Candidate
	seen := map[string]struct{}{}

	resolveAll := x.registry.ResolveMetricsInQuestion
	scopeOf := x.registry.ScopeOf
	if !isMetric {
		resolveAll = x.registry.ResolveDimensionsInQuestion
	}

	for _, key := range resolveAll(question) {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.Candidate{
			Name: key, Score: 1.0, MatchedBy: domain.MatchedExplicit, Scope: scopeOf(key),
		})
	}

	var semMatches []semanticindex.Match
	if isMetric {
		semMatches = x.semantic.MatchMetric(question, 5, semanticMid)
	} else {
		semMatches = x.semantic.MatchDimension(question, 5, semanticMid)
	}
	for _, m := range semMatches {
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		matchedBy := domain.MatchedSemanticMid
		needsClarify := true
		if m.Confidence >= semanticHigh {
			matchedBy = domain.MatchedSemanticHigh
			needsClarify = false
		}
		out = append(out, domain.Candidate{
			Name: m.Name, Score: m.Confidence, MatchedBy: matchedBy, Scope: scopeOf(m.Name), NeedsClarify: needsClarify,
		})
	}

	x.registry.SortCandidates(out)
	if isMetric && len(out) > maxMetrics {
		out = out[:maxMetrics]
	}
	return out
}
