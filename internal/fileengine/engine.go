package fileengine

import (
	"context"
	"fmt"
	"strings"

	"nugget/internal/llm"
)

// Engine answers questions against one loaded Table, independent of
// the GA4 analytics pipeline and its conversation state.
type Engine struct {
	llm       llm.Port
	pageLimit int
}

func New(port llm.Port, pageLimit int) *Engine {
	if pageLimit <= 0 {
		pageLimit = 500
	}
	return &Engine{llm: port, pageLimit: pageLimit}
}

// Result is one turn's answer over a file.
type Result struct {
	Message   string
	Intent    IntentType
	Rows      []map[string]any
	PlotData  PlotData
	Followups []string
}

type PlotData struct {
	Labels []string
	Values []float64
}

// Process answers question against table, carrying lastIntent across
// calls so follow-up phrases ("응", "보여줘") can replay the prior
// intent.
func (e *Engine) Process(ctx context.Context, question string, table *Table, lastIntent *Intent) (Result, *Intent) {
	intent := DetectIntent(question, lastIntent)
	profile := table.ProfileColumns()

	switch intent.Type {
	case IntentSchema:
		return e.answerSchema(table, profile), &intent
	case IntentColumnsSummary:
		return e.answerColumnsSummary(table, profile), &intent
	case IntentPreview:
		return e.answerPreview(table, question), &intent
	case IntentOverview:
		return e.answerOverview(table, profile), &intent
	case IntentCountUsers:
		return e.answerCountUsers(table, profile), &intent
	case IntentCountAdmin:
		return e.answerCountAdmin(table, profile), &intent
	case IntentGroupBy:
		return e.answerGroupBy(table, question, profile), &intent
	case IntentAggregate:
		return e.answerAggregate(table, question, profile), &intent
	case IntentTrend:
		return e.answerTrend(table, question, profile), &intent
	case IntentGuidance:
		return Result{Message: "어떤 걸 알고 싶으신가요? 예: \"컬럼 구조 보여줘\", \"카테고리별 합계\", \"평균이 얼마야\""}, &intent
	default:
		return e.answerInsight(ctx, table, question), &intent
	}
}

func (e *Engine) answerSchema(table *Table, profile map[string]ColumnKind) Result {
	var lines []string
	for _, col := range table.Columns {
		lines = append(lines, fmt.Sprintf("- %s (%s)", col, profile[col]))
	}
	return Result{
		Message:   fmt.Sprintf("총 %d개 컬럼입니다.\n%s", len(table.Columns), strings.Join(lines, "\n")),
		Followups: []string{"핵심 지표 3개를 먼저 요약해볼까요?", "컬럼별 결측치/이상치를 점검해볼까요?", "샘플 10행 더 보기"},
	}
}

func (e *Engine) answerColumnsSummary(table *Table, profile map[string]ColumnKind) Result {
	counts := map[ColumnKind]int{}
	for _, k := range profile {
		counts[k]++
	}
	msg := fmt.Sprintf("숫자형 %d개, 범주형 %d개, 날짜형 %d개, 식별자형 %d개 컬럼이 있습니다.",
		counts[KindNumeric], counts[KindCategorical], counts[KindDate], counts[KindIdentifier])
	return Result{Message: msg}
}

func (e *Engine) answerPreview(table *Table, question string) Result {
	n := 5
	if strings.Contains(strings.ToLower(question), "10") {
		n = 10
	}
	rows := e.previewRows(table, n)
	return Result{
		Message:   fmt.Sprintf("상위 %d행입니다.", len(rows)),
		Rows:      rows,
		Followups: []string{"샘플 10행 더 보기", "고유값 전체 목록 보기", "다른 컬럼과 교차 집계해볼까요?"},
	}
}

func (e *Engine) previewRows(table *Table, n int) []map[string]any {
	if n > len(table.Rows) {
		n = len(table.Rows)
	}
	out := make([]map[string]any, 0, n)
	for _, r := range table.Rows[:n] {
		row := make(map[string]any, len(r))
		for k, v := range r {
			row[k] = v
		}
		out = append(out, row)
	}
	return out
}

func (e *Engine) answerOverview(table *Table, profile map[string]ColumnKind) Result {
	period := e.inferDatasetPeriod(table, profile)
	msg := fmt.Sprintf("총 %d행, %d개 컬럼입니다.", len(table.Rows), len(table.Columns))
	if period != "" {
		msg += fmt.Sprintf(" 기간: %s", period)
	}
	return Result{Message: msg}
}

func (e *Engine) inferDatasetPeriod(table *Table, profile map[string]ColumnKind) string {
	dateCol := table.guessDateColumn(profile)
	if dateCol == "" {
		return ""
	}
	points := table.TrendAggregate(dateCol, "", OpCount)
	if len(points) == 0 {
		return ""
	}
	return fmt.Sprintf("%s ~ %s", points[0].Date, points[len(points)-1].Date)
}

var userColumnHints = []string{"user_id", "userid", "email", "member", "회원", "사용자"}
var adminColumnHints = []string{"admin", "관리자", "is_admin"}

func (e *Engine) answerCountUsers(table *Table, profile map[string]ColumnKind) Result {
	col := findUserIDColumn(table, profile)
	if col == "" {
		return Result{Message: fmt.Sprintf("총 %d행입니다.", len(table.Rows))}
	}
	seen := map[string]bool{}
	for _, row := range table.Rows {
		v := row[col]
		if v != "" {
			seen[v] = true
		}
	}
	return Result{Message: fmt.Sprintf("고유 사용자 수는 **%d명**입니다.", len(seen))}
}

func findUserIDColumn(table *Table, profile map[string]ColumnKind) string {
	for _, col := range table.Columns {
		cl := strings.ToLower(col)
		for _, h := range userColumnHints {
			if strings.Contains(cl, h) {
				return col
			}
		}
	}
	return ""
}

func (e *Engine) answerCountAdmin(table *Table, profile map[string]ColumnKind) Result {
	col := findAdminColumn(table)
	if col == "" {
		return Result{Message: "관리자 구분 컬럼을 찾지 못했습니다."}
	}
	count := 0
	for _, row := range table.Rows {
		if isTruthy(row[col]) {
			count++
		}
	}
	return Result{Message: fmt.Sprintf("관리자 수는 **%d명**입니다.", count)}
}

func findAdminColumn(table *Table) string {
	for _, col := range table.Columns {
		cl := strings.ToLower(col)
		for _, h := range adminColumnHints {
			if strings.Contains(cl, h) {
				return col
			}
		}
	}
	return ""
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "y", "yes", "1", "t":
		return true
	default:
		return false
	}
}

func (e *Engine) answerGroupBy(table *Table, question string, profile map[string]ColumnKind) Result {
	groupCol := table.guessGroupColumn(question, profile)
	metricCol := table.guessMetricColumn(question, profile)
	op := guessOp(question)
	dropMissing := wantsDropMissing(question)

	if groupCol == "" {
		return Result{Message: "그룹 기준으로 쓸 컬럼을 찾지 못했습니다."}
	}
	groups := table.GroupAggregate(groupCol, metricCol, op, dropMissing)

	var lines []string
	labels := make([]string, 0, len(groups))
	values := make([]float64, 0, len(groups))
	for i, g := range groups {
		if i >= 20 {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %.2f", i+1, g.Key, g.Value))
		labels = append(labels, g.Key)
		values = append(values, g.Value)
	}

	return Result{
		Message:   fmt.Sprintf("%s 기준 %s 결과입니다.\n%s", groupCol, op, strings.Join(lines, "\n")),
		PlotData:  PlotData{Labels: labels, Values: values},
		Followups: []string{"상위 10개 항목만 추려서 볼까요?", "이전 기간과 비교할 수 있게 추이로 바꿔볼까요?", "비중(%) 기준으로 다시 정리해볼까요?"},
	}
}

func wantsDropMissing(question string) bool {
	q := strings.ToLower(question)
	return containsAny(q, []string{"결측 제외", "결측치 제외", "null 제외", "not set 제외", "(not set) 제외", "빈값 제외", "누락 제외"})
}

func (e *Engine) answerAggregate(table *Table, question string, profile map[string]ColumnKind) Result {
	metricCol := table.guessMetricColumn(question, profile)
	op := guessOp(question)
	total := table.AggregateTotal(metricCol, op)
	label := metricCol
	if label == "" {
		label = "행 수"
	}
	return Result{Message: fmt.Sprintf("%s의 %s 값은 **%.2f**입니다.", label, op, total)}
}

func (e *Engine) answerTrend(table *Table, question string, profile map[string]ColumnKind) Result {
	dateCol := table.guessDateColumn(profile)
	if dateCol == "" {
		return Result{Message: "날짜 컬럼을 찾지 못했습니다."}
	}
	metricCol := table.guessMetricColumn(question, profile)
	op := guessOp(question)
	points := table.TrendAggregate(dateCol, metricCol, op)

	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Date
		values[i] = p.Value
	}
	return Result{
		Message:   fmt.Sprintf("%s 추이입니다. (%d개 구간)", dateCol, len(points)),
		PlotData:  PlotData{Labels: labels, Values: values},
		Followups: []string{"전주/전월과 비교해 증감률을 볼까요?", "추이에서 급증/급감 구간만 뽑아볼까요?", "채널/유형으로 분해해서 추이를 볼까요?"},
	}
}

// answerInsight falls back to the LLM port for free-form questions the
// deterministic paths above don't cover, per §4.I.
func (e *Engine) answerInsight(ctx context.Context, table *Table, question string) Result {
	summary := e.deterministicSummary(table)
	prompt := fmt.Sprintf("질문: %s\n데이터 요약: %s\n한두 문장으로 한국어로 답해줘.", question, summary)
	msg, err := e.llm.Insight(ctx, prompt)
	if err != nil || msg == "" {
		return Result{Message: summary}
	}
	return Result{Message: msg}
}

func (e *Engine) deterministicSummary(table *Table) string {
	return fmt.Sprintf("이 파일은 %d행, %d개 컬럼(%s)으로 구성되어 있습니다.",
		len(table.Rows), len(table.Columns), strings.Join(table.Columns, ", "))
}

// Page returns rows[offset:offset+limit], clamped to pageLimit.
func (e *Engine) Page(table *Table, offset int) ([]map[string]any, bool) {
	limit := e.pageLimit
	if offset >= len(table.Rows) {
		return nil, false
	}
	end := offset + limit
	if end > len(table.Rows) {
		end = len(table.Rows)
	}
	out := make([]map[string]any, 0, end-offset)
	for _, r := range table.Rows[offset:end] {
		row := make(map[string]any, len(r))
		for k, v := range r {
			row[k] = v
		}
		out = append(out, row)
	}
	return out, end < len(table.Rows)
}
