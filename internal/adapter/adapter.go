package adapter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"nugget/internal/domain"
	"nugget/internal/registry"
	"nugget/internal/rules"
)

// Adapter turns executed blocks into the Response envelope: prose
// message, chart spec, followups, and data-quality warnings.
type Adapter struct {
	registry     *registry.Registry
	evaluator    *rules.Evaluator
	synthesizers []synthesizer
}

func New(reg *registry.Registry) *Adapter {
	return &Adapter{
		registry:     reg,
		evaluator:    rules.NewEvaluator(),
		synthesizers: defaultSynthesizers(),
	}
}

// Adapt builds the full Response for one turn from its executed blocks.
func (a *Adapter) Adapt(question string, blocks []domain.BlockResult, account string, period string) domain.Response {
	resp := domain.Response{
		Status:  domain.StatusOK,
		Account: account,
		Period:  period,
		Blocks:  blocks,
	}
	if len(blocks) == 0 {
		resp.Status = domain.StatusError
		resp.Message = "조건에 맞는 데이터를 찾지 못했습니다."
		return resp
	}

	cleaned := a.cleanBlocks(question, blocks)
	resp.Blocks = cleaned

	resp.Message = a.buildMessage(question, cleaned)
	resp.PlotData = a.extractPlotData(cleaned)
	resp.FollowupSuggestions = a.buildFollowups(question, cleaned)

	if warning := a.buildDataQualityWarning(question, blocks); warning != "" {
		resp.Message = resp.Message + "\n\n" + warning
	}

	return resp
}

// cleanBlocks drops blank-like rows on the dimension the question
// focuses on, per §4.H. When that dimension has no real value at all,
// every row of the block is dropped.
func (a *Adapter) cleanBlocks(question string, blocks []domain.BlockResult) []domain.BlockResult {
	out := make([]domain.BlockResult, len(blocks))
	for i, b := range blocks {
		if len(b.Rows) == 0 {
			out[i] = b
			continue
		}
		dimKey := a.questionFocusDimension(question, b.Rows)
		if dimKey == "" {
			dimKey = a.selectFilterDimension(b.Rows)
		}
		b.Rows = cleanDisplayRows(b.Rows, dimKey)
		out[i] = b
	}
	return out
}

var focusDimensionKeywords = []struct {
	words []string
	key   string
}{
	{[]string{"메뉴", "menu", "gnb", "lnb"}, "customEvent:menu_name"},
	{[]string{"후원명", "donation_name", "후원 유형", "후원유형"}, "customEvent:donation_name"},
	{[]string{"스크롤", "scroll"}, "customEvent:percent_scrolled"},
	{[]string{"버튼", "button"}, "customEvent:button_name"},
}

func (a *Adapter) questionFocusDimension(question string, rows []domain.Row) string {
	if len(rows) == 0 {
		return ""
	}
	q := strings.ToLower(question)
	for _, f := range focusDimensionKeywords {
		if _, ok := rows[0][f.key]; !ok {
			continue
		}
		if containsAnyOf(q, f.words...) {
			return f.key
		}
	}
	return ""
}

var preferredFilterDimensions = []string{
	"customEvent:menu_name", "customEvent:donation_name", "customEvent:click_text",
	"itemName", "eventName", "defaultChannelGroup", "sessionSource", "country",
}

func (a *Adapter) selectFilterDimension(rows []domain.Row) string {
	if len(rows) == 0 {
		return ""
	}
	for _, k := range preferredFilterDimensions {
		if _, ok := rows[0][k]; ok {
			return k
		}
	}
	labelKey, _ := firstLabelAndMetric(rows[0])
	return labelKey
}

func cleanDisplayRows(rows []domain.Row, dimKey string) []domain.Row {
	if dimKey == "" {
		return rows
	}
	hasReal := false
	for _, r := range rows {
		if !blankLike(r[dimKey].Str) {
			hasReal = true
			break
		}
	}
	if !hasReal {
		return nil
	}
	var cleaned []domain.Row
	for _, r := range rows {
		if blankLike(r[dimKey].Str) {
			continue
		}
		cleaned = append(cleaned, r)
	}
	if len(cleaned) == 0 {
		return rows
	}
	return cleaned
}

func (a *Adapter) buildDataQualityWarning(question string, blocks []domain.BlockResult) string {
	for _, b := range blocks {
		if len(b.Rows) == 0 {
			continue
		}
		focus := a.questionFocusDimension(question, b.Rows)
		if focus == "" {
			continue
		}
		if _, ok := b.Rows[0][focus]; !ok {
			continue
		}
		total := len(b.Rows)
		valid := 0
		for _, r := range b.Rows {
			if !blankLike(r[focus].Str) {
				valid++
			}
		}
		label := strings.TrimPrefix(focus, "customEvent:")
		if valid == 0 {
			return fmt.Sprintf("현재 기간에는 `%s` 값이 수집되지 않았습니다. 커스텀 정의/이벤트 전송을 점검해 주세요.", label)
		}
		ratio := float64(valid) / float64(total)
		if ratio < 0.3 {
			return fmt.Sprintf("`%s` 값의 유효 수집 비율이 낮습니다(%d/%d). 해석 시 주의가 필요합니다.", label, valid, total)
		}
	}
	return ""
}

func (a *Adapter) buildMessage(question string, blocks []domain.BlockResult) string {
	brief := isBriefRequest(question)

	for _, b := range blocks {
		if len(b.Rows) == 0 {
			continue
		}
		for _, s := range a.synthesizers {
			ok, err := a.evaluator.Eval(s.predicate, synthesizerVars(question, b.Rows))
			if err != nil || !ok {
				continue
			}
			if msg := s.build(question, b.Rows); msg != "" {
				return msg
			}
		}
	}

	var parts []string
	for _, b := range blocks {
		parts = append(parts, a.formatBlockMessage(b, brief))
	}
	return strings.Join(parts, "\n\n")
}

func (a *Adapter) formatBlockMessage(b domain.BlockResult, brief bool) string {
	switch b.Type {
	case domain.BlockTotal:
		return a.formatTotalMessage(b)
	case domain.BlockBreakdownTopN:
		return a.formatTopNMessage(b, brief)
	case domain.BlockBreakdown:
		return a.formatBreakdownMessage(b, brief)
	case domain.BlockTrend:
		return a.formatTrendMessage(b, brief)
	default:
		return ""
	}
}

func (a *Adapter) formatTotalMessage(b domain.BlockResult) string {
	if len(b.Total) == 0 {
		return fmt.Sprintf("%s 결과가 없습니다.", b.Title)
	}
	keys := make([]string, 0, len(b.Total))
	for k := range b.Total {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		uiName := a.registry.UINameOf(k)
		unit := metricUnit(k)
		parts = append(parts, fmt.Sprintf("%s%s **%s**", uiName, topicParticle(uiName), formatValue(b.Total[k], unit)))
	}
	return strings.Join(parts, ", ") + "입니다."
}

func (a *Adapter) formatBreakdownMessage(b domain.BlockResult, brief bool) string {
	if len(b.Rows) == 0 {
		return fmt.Sprintf("%s 결과가 없습니다.", b.Title)
	}
	limit := 10
	if brief {
		limit = 3
	}
	lines := a.formatTopRows(b.Rows, limit)
	return fmt.Sprintf("%s입니다.\n%s", b.Title, strings.Join(lines, "\n"))
}

func (a *Adapter) formatTopNMessage(b domain.BlockResult, brief bool) string {
	if len(b.Rows) == 0 {
		return fmt.Sprintf("%s 결과가 없습니다.", b.Title)
	}
	limit := 10
	if brief {
		limit = 3
	}
	top := summarizeTopItem(b.Rows[0])
	lines := a.formatTopRows(b.Rows, limit)
	return fmt.Sprintf("상위 항목은 %s입니다.\n%s", top, strings.Join(lines, "\n"))
}

func (a *Adapter) formatTrendMessage(b domain.BlockResult, brief bool) string {
	if len(b.Rows) == 0 {
		return fmt.Sprintf("%s 결과가 없습니다.", b.Title)
	}
	limit := 14
	if brief {
		limit = 5
	}
	lines := a.formatTopRows(b.Rows, limit)
	return fmt.Sprintf("%s 추이입니다.\n%s", b.Title, strings.Join(lines, "\n"))
}

func summarizeTopItem(row domain.Row) string {
	labelKey, metricKey := firstLabelAndMetric(row)
	if labelKey == "" {
		return "상위 항목"
	}
	label := row[labelKey].Str
	if metricKey == "" {
		return label
	}
	unit := metricUnit(metricKey)
	return fmt.Sprintf("%s (%s)", label, formatValue(row[metricKey], unit))
}

// formatTopRows renders up to max rows as "N. label: value | label2: value2".
func (a *Adapter) formatTopRows(rows []domain.Row, max int) []string {
	if len(rows) > max {
		rows = rows[:max]
	}
	hasCustom := false
	for _, r := range rows {
		for k := range r {
			if strings.HasPrefix(k, "customEvent:") {
				hasCustom = true
			}
		}
	}
	limit := 2
	if hasCustom {
		limit = 4
	}

	var out []string
	for i, r := range rows {
		keys := sortedKeys(r)
		if hasCustom {
			var custom, nonCustom []string
			for _, k := range keys {
				if strings.HasPrefix(k, "customEvent:") {
					custom = append(custom, k)
				} else {
					nonCustom = append(nonCustom, k)
				}
			}
			ordered := append([]string{}, nonCustom[:min(1, len(nonCustom))]...)
			ordered = append(ordered, custom...)
			if len(nonCustom) > 1 {
				ordered = append(ordered, nonCustom[1:]...)
			}
			keys = ordered
		}

		var parts []string
		for _, k := range keys {
			v := r[k]
			label := a.registry.UINameOf(k)
			var rendered string
			if v.IsNum {
				rendered = formatValue(v, metricUnit(k))
			} else {
				rendered = formatDimensionValue(k, v)
			}
			parts = append(parts, fmt.Sprintf("%s: %s", label, rendered))
			if len(parts) >= limit {
				break
			}
		}
		if len(parts) > 0 {
			out = append(out, fmt.Sprintf("%d. %s", i+1, strings.Join(parts, " | ")))
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var isoDateLabelRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// extractPlotData picks the first breakdown/trend block with rows, or
// falls back to the first total block, per §4.H's chart selection rule.
func (a *Adapter) extractPlotData(blocks []domain.BlockResult) domain.ChartSpec {
	for _, b := range blocks {
		if len(b.Rows) == 0 {
			continue
		}
		sample := b.Rows[0]
		keys := sortedKeys(sample)
		if len(keys) == 0 {
			continue
		}

		labelKey := keys[0]
		for _, k := range keys {
			if !sample[k].IsNum {
				labelKey = k
				break
			}
		}

		sampleSize := len(b.Rows)
		if sampleSize > 30 {
			sampleSize = 30
		}
		var metricKeys []string
		for _, k := range keys {
			if k == labelKey {
				continue
			}
			count := 0
			for _, r := range b.Rows[:sampleSize] {
				if r[k].IsNum {
					count++
				}
			}
			threshold := sampleSize
			if threshold > 3 {
				threshold = 3
			}
			if threshold < 1 {
				threshold = 1
			}
			if count >= threshold {
				metricKeys = append(metricKeys, k)
			}
			if len(metricKeys) == 2 {
				break
			}
		}
		if len(metricKeys) == 0 {
			continue
		}

		labels := make([]string, len(b.Rows))
		seriesData := make([][]float64, len(metricKeys))
		for i, r := range b.Rows {
			labels[i] = r[labelKey].Str
			for j, mk := range metricKeys {
				seriesData[j] = append(seriesData[j], r[mk].Num)
			}
		}

		chartType := "bar"
		if b.Type == domain.BlockTrend {
			chartType = "line"
			sortTrendByDate(labels, seriesData)
		}

		series := make([]domain.ChartSeries, len(metricKeys))
		for j, mk := range metricKeys {
			series[j] = domain.ChartSeries{Name: mk, Data: seriesData[j]}
		}
		return domain.ChartSpec{Type: chartType, Labels: labels, Series: series}
	}

	for _, b := range blocks {
		if len(b.Total) == 0 {
			continue
		}
		keys := make([]string, 0, len(b.Total))
		for k := range b.Total {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var labels []string
		var data []float64
		for _, k := range keys {
			if !b.Total[k].IsNum {
				continue
			}
			labels = append(labels, k)
			data = append(data, b.Total[k].Num)
		}
		if len(labels) > 0 {
			return domain.ChartSpec{Type: "bar", Labels: labels, Series: []domain.ChartSeries{{Name: "value", Data: data}}}
		}
	}

	return domain.ChartSpec{}
}

func sortTrendByDate(labels []string, series [][]float64) {
	idx := make([]int, len(labels))
	for i := range idx {
		idx[i] = i
	}
	key := func(i int) string {
		if isoDateLabelRe.MatchString(labels[i]) {
			return labels[i]
		}
		return "9999-" + labels[i]
	}
	sort.SliceStable(idx, func(i, j int) bool { return key(idx[i]) < key(idx[j]) })

	sortedLabels := make([]string, len(labels))
	sortedSeries := make([][]float64, len(series))
	for s := range series {
		sortedSeries[s] = make([]float64, len(labels))
	}
	for newPos, oldPos := range idx {
		sortedLabels[newPos] = labels[oldPos]
		for s := range series {
			sortedSeries[s][newPos] = series[s][oldPos]
		}
	}
	copy(labels, sortedLabels)
	for s := range series {
		copy(series[s], sortedSeries[s])
	}
}

var compareTokenRe = regexp.MustCompile(`비교|대비|vs`)

// buildFollowups suggests 0-3 next questions based on what the current
// blocks already cover, per §4.H.
func (a *Adapter) buildFollowups(question string, blocks []domain.BlockResult) []string {
	var out []string
	hasBreakdown, hasTrend, hasTopNFriendlyMetric := false, false, false
	q := strings.ToLower(question)

	for _, b := range blocks {
		switch b.Type {
		case domain.BlockBreakdown, domain.BlockBreakdownTopN:
			hasBreakdown = true
		case domain.BlockTrend:
			hasTrend = true
		case domain.BlockTotal:
			for k := range b.Total {
				if metricUnit(k) != "" {
					hasTopNFriendlyMetric = true
				}
			}
		}
	}

	if !compareTokenRe.MatchString(q) && !hasBreakdown {
		out = append(out, "기간별 추이도 함께 보여드릴까요?")
	}
	if !hasTopNFriendlyMetric || !containsAnyOf(q, "top", "상위") {
		if !hasBreakdown {
			out = append(out, "상위 항목별로 나눠서 볼까요?")
		}
	}
	if hasBreakdown && !hasTrend {
		out = append(out, "이 항목의 기간별 추이를 볼까요?")
	}

	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
