// Package fileengine answers natural-language questions over an
// uploaded CSV file: column profiling, intent detection, and
// deterministic aggregation, independent of the analytics backend.
package fileengine

import (
	"encoding/csv"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ColumnKind is the profiler's inferred type for one column.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindDate        ColumnKind = "date"
	KindBoolean     ColumnKind = "boolean"
	KindIdentifier  ColumnKind = "identifier"
)

// Table is an in-memory columnar view over a parsed CSV file, the
// smallest representation that the column profiler and aggregator
// need; there is no ecosystem dataframe library in play here, so this
// stays a thin stdlib-backed struct rather than pulling one in.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// LoadCSV parses r into a Table with a lenient encoding/csv reader
// (lazy quotes, variable field count); the first record is the header.
func LoadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	header := records[0]
	t := &Table{Columns: header}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

var boolValues = map[string]bool{
	"y": true, "n": true, "yes": true, "no": true, "true": true, "false": true,
	"0": true, "1": true, "t": true, "f": true,
}

var identifierNameHints = []string{"id", "_id", "idx", "코드", "번호", "no", "seq", "key"}
var codeNameHints = []string{"route", "type", "category", "status", "grade", "level", "group", "구분", "유형", "등급", "상태", "경로"}

var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"01/02/2006", "2006.01.02",
}

var numericStripRe = regexp.MustCompile(`[^\d.\-]`)

// ProfileColumns infers a ColumnKind for every column using a 2000-row
// sample, following numeric -> identifier/categorical disambiguation by
// name hints and sequential/low-cardinality heuristics.
func (t *Table) ProfileColumns() map[string]ColumnKind {
	profile := make(map[string]ColumnKind, len(t.Columns))
	for _, col := range t.Columns {
		profile[col] = t.inferColumnKind(col)
	}
	return profile
}

func (t *Table) sampleValues(col string, limit int) []string {
	var out []string
	for _, row := range t.Rows {
		v, ok := row[col]
		if !ok || v == "" {
			continue
		}
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (t *Table) inferColumnKind(col string) ColumnKind {
	sample := t.sampleValues(col, 2000)
	if len(sample) == 0 {
		return KindCategorical
	}
	cl := strings.ToLower(col)

	if len(sample) >= 5 {
		boolHits := 0
		for _, v := range sample {
			if boolValues[strings.ToLower(v)] {
				boolHits++
			}
		}
		if float64(boolHits)/float64(len(sample)) >= 0.95 {
			return KindBoolean
		}
	}

	dateHits := 0
	for _, v := range sample {
		if parseAnyDate(v) {
			dateHits++
		}
	}
	if float64(dateHits)/float64(len(sample)) >= 0.9 {
		return KindDate
	}

	var numeric []float64
	numericHits := 0
	for _, v := range sample {
		cleaned := numericStripRe.ReplaceAllString(v, "")
		if cleaned == "" || cleaned == "-" {
			continue
		}
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			numeric = append(numeric, f)
			numericHits++
		}
	}
	numericRatio := float64(numericHits) / float64(len(sample))
	if numericRatio < 0.95 {
		return KindCategorical
	}

	uniqueVals := uniqueCount(sample)
	uniqRatio := float64(uniqueVals) / float64(len(sample))
	integerLike := isIntegerLike(numeric)
	idName := containsHint(cl, identifierNameHints)
	codeName := containsHint(cl, codeNameHints)
	lowCardCode := integerLike && uniqueVals <= 20 && uniqRatio <= 0.4
	seqLike := integerLike && len(numeric) >= 3 && isSequential(numeric)

	if codeName || lowCardCode {
		return KindCategorical
	}
	if idName || seqLike {
		return KindIdentifier
	}
	return KindNumeric
}

func parseAnyDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func uniqueCount(vals []string) int {
	seen := map[string]bool{}
	for _, v := range vals {
		seen[v] = true
	}
	return len(seen)
}

func isIntegerLike(vals []float64) bool {
	if len(vals) == 0 {
		return false
	}
	hits := 0
	for _, v := range vals {
		if v == float64(int64(v)) {
			hits++
		}
	}
	return float64(hits)/float64(len(vals)) >= 0.98
}

func isSequential(vals []float64) bool {
	sorted := append([]float64{}, vals...)
	sort.Float64s(sorted)
	hits := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] == 1 {
			hits++
		}
	}
	if len(sorted) <= 1 {
		return false
	}
	return float64(hits)/float64(len(sorted)-1) >= 0.95
}

func containsHint(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

func toNumeric(v string) (float64, bool) {
	cleaned := numericStripRe.ReplaceAllString(v, "")
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
