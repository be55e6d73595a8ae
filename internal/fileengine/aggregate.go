package fileengine

import (
	"sort"
	"strings"
	"time"
)

// Op is a deterministic aggregation operator.
type Op string

const (
	OpSum   Op = "sum"
	OpMean  Op = "mean"
	OpMax   Op = "max"
	OpMin   Op = "min"
	OpCount Op = "count"
)

func guessOp(question string) Op {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, []string{"평균", "average", "avg", "mean"}):
		return OpMean
	case containsAny(q, []string{"최대", "max", "가장 많"}):
		return OpMax
	case containsAny(q, []string{"최소", "min", "가장 적"}):
		return OpMin
	case containsAny(q, []string{"개수", "count", "몇 개", "몇개"}):
		return OpCount
	default:
		return OpSum
	}
}

// groupNameHints are Korean/English column-name tokens that usually mean
// "this is the thing to break results down by" even when the question
// itself never names the column (유형/채널/country/후원 and friends).
var groupNameHints = []string{
	"유형", "type", "채널", "channel", "국가", "country", "후원", "donation",
	"구분", "category", "등급", "grade", "상태", "status", "그룹", "group",
}

// guessGroupColumn scores every categorical/identifier/boolean column by
// a Korean-heuristic name match or a literal mention in the question,
// plus a cardinality bonus for columns with a plausible group-by shape
// (2..min(200, rows) distinct values), and returns the highest scorer.
func (t *Table) guessGroupColumn(question string, profile map[string]ColumnKind) string {
	q := strings.ToLower(question)
	rows := len(t.Rows)

	var best string
	bestScore := 0
	for _, col := range t.Columns {
		kind := profile[col]
		if kind != KindCategorical && kind != KindIdentifier && kind != KindBoolean {
			continue
		}
		cl := strings.ToLower(col)

		score := 0
		if containsHint(cl, groupNameHints) {
			score += 2
		}
		if strings.Contains(q, cl) {
			score += 2
		}
		if score == 0 {
			continue
		}
		if n := t.columnUniqueCount(col); n >= 2 && n <= min(200, rows) {
			score++
		}
		if score > bestScore {
			bestScore = score
			best = col
		}
	}
	if best != "" {
		return best
	}

	// Nothing named or hinted at: fall back to the first eligible column
	// in table order, the prior behavior for an unscoped question.
	for _, col := range t.Columns {
		kind := profile[col]
		if kind == KindCategorical || kind == KindIdentifier || kind == KindBoolean {
			return col
		}
	}
	return ""
}

// columnUniqueCount counts distinct values of col across every row.
func (t *Table) columnUniqueCount(col string) int {
	seen := map[string]struct{}{}
	for _, row := range t.Rows {
		seen[row[col]] = struct{}{}
	}
	return len(seen)
}

func (t *Table) guessMetricColumn(question string, profile map[string]ColumnKind) string {
	q := strings.ToLower(question)
	var best string
	for _, col := range t.Columns {
		if profile[col] != KindNumeric {
			continue
		}
		if strings.Contains(q, strings.ToLower(col)) {
			return col
		}
		if best == "" {
			best = col
		}
	}
	return best
}

func (t *Table) guessDateColumn(profile map[string]ColumnKind) string {
	for _, col := range t.Columns {
		if profile[col] == KindDate {
			return col
		}
	}
	return ""
}

// AggregateTotal computes a single scalar aggregate, or a row count
// when no numeric metric column is found.
func (t *Table) AggregateTotal(metricCol string, op Op) float64 {
	if metricCol == "" {
		return float64(len(t.Rows))
	}
	var vals []float64
	for _, row := range t.Rows {
		if f, ok := toNumeric(row[metricCol]); ok {
			vals = append(vals, f)
		}
	}
	return reduce(vals, op)
}

func reduce(vals []float64, op Op) float64 {
	if len(vals) == 0 {
		if op == OpCount {
			return 0
		}
		return 0
	}
	switch op {
	case OpCount:
		return float64(len(vals))
	case OpMean:
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals))
	case OpMax:
		m := vals[0]
		for _, v := range vals[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case OpMin:
		m := vals[0]
		for _, v := range vals[1:] {
			if v < m {
				m = v
			}
		}
		return m
	default:
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum
	}
}

// GroupRow is one bucket of a group-by aggregation.
type GroupRow struct {
	Key   string
	Value float64
}

// GroupAggregate buckets rows by groupCol and reduces metricCol with
// op, dropping blank-like group keys when dropMissing is set.
func (t *Table) GroupAggregate(groupCol, metricCol string, op Op, dropMissing bool) []GroupRow {
	buckets := map[string][]float64{}
	var order []string
	for _, row := range t.Rows {
		key := row[groupCol]
		if dropMissing && blankLikeValue(key) {
			continue
		}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		if metricCol == "" {
			buckets[key] = append(buckets[key], 1)
			continue
		}
		if f, ok := toNumeric(row[metricCol]); ok {
			buckets[key] = append(buckets[key], f)
		} else if op == OpCount {
			buckets[key] = append(buckets[key], 0)
		}
	}

	out := make([]GroupRow, 0, len(order))
	for _, key := range order {
		out = append(out, GroupRow{Key: key, Value: reduce(buckets[key], op)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// TrendPoint is one date bucket of a trend aggregation.
type TrendPoint struct {
	Date  string
	Value float64
}

// TrendAggregate buckets rows by date (truncated to day) and reduces
// metricCol with op, sorted ascending and capped at 400 points.
func (t *Table) TrendAggregate(dateCol, metricCol string, op Op) []TrendPoint {
	buckets := map[string][]float64{}
	for _, row := range t.Rows {
		raw := row[dateCol]
		day := dayKey(raw)
		if day == "" {
			continue
		}
		if metricCol == "" {
			buckets[day] = append(buckets[day], 1)
			continue
		}
		if f, ok := toNumeric(row[metricCol]); ok {
			buckets[day] = append(buckets[day], f)
		}
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 400 {
		keys = keys[:400]
	}
	out := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, TrendPoint{Date: k, Value: reduce(buckets[k], op)})
	}
	return out
}

func dayKey(raw string) string {
	for _, layout := range dateLayouts {
		if tm, err := time.Parse(layout, raw); err == nil {
			return tm.Format("2006-01-02")
		}
	}
	return ""
}

func blankLikeValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "(not set)", "none", "null", "nan", "unknown":
		return true
	default:
		return false
	}
}
