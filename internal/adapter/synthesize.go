package adapter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"nugget/internal/domain"
)

// synthesizer is a domain-specific message builder gated by a rule
// predicate over the question and row shape. Evaluated in order;
// first non-empty message wins over the generic block formatter.
type synthesizer struct {
	name      string
	predicate string
	build     func(question string, rows []domain.Row) string
}

func synthesizerVars(question string, rows []domain.Row) map[string]any {
	q := strings.ToLower(question)
	return map[string]any{
		"hasCompareWord":   containsAnyOf(q, "중", "어떤게", "어느", "많아", "더"),
		"hasDomesticWord":  strings.Contains(q, "국내"),
		"hasOverseasWord":  strings.Contains(q, "해외"),
		"hasConversionWord": containsAnyOf(q, "전환", "비율", "율"),
		"hasClickOrBuyWord": containsAnyOf(q, "클릭", "구매"),
		"hasRatioWord":      containsAnyOf(q, "비중", "구성비", "비율", "점유율"),
		"hasProfileWord":    containsAnyOf(q, "매개변수", "파라미터", "parameter", "상세", "정보", "더 알 수"),
		"rowCount":          len(rows),
	}
}

func defaultSynthesizers() []synthesizer {
	return []synthesizer{
		{"dual_entity_compare", `hasCompareWord && rowCount > 0`, buildDualEntityCompareMessage},
		{"domestic_overseas", `hasDomesticWord && hasOverseasWord && rowCount > 0`, buildDomesticOverseasMessage},
		{"donation_conversion", `hasConversionWord && hasClickOrBuyWord && rowCount > 0`, buildDonationConversionMessage},
		{"named_ratio", `hasRatioWord && rowCount > 0`, buildNamedRatioMessage},
		{"item_profile", `hasProfileWord && rowCount > 0`, buildItemProfileMessage},
	}
}

// firstNumeric returns the first key in row whose value is numeric.
func firstNumeric(row domain.Row, keys []string) (string, bool) {
	for _, k := range keys {
		if row[k].IsNum {
			return k, true
		}
	}
	return "", false
}

func sortedKeys(row domain.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstLabelAndMetric(row domain.Row) (labelKey, metricKey string) {
	for _, k := range sortedKeys(row) {
		v := row[k]
		if labelKey == "" && !v.IsNum && !v.IsNull {
			labelKey = k
		}
		if metricKey == "" && v.IsNum {
			metricKey = k
		}
	}
	return
}

func buildDualEntityCompareMessage(question string, rows []domain.Row) string {
	terms := extractEntityTerms(question)
	if len(terms) < 2 || len(rows) == 0 {
		return ""
	}
	labelKey, metricKey := firstLabelAndMetric(rows[0])
	if labelKey == "" || metricKey == "" {
		return ""
	}

	totals := map[string]float64{terms[0]: 0, terms[1]: 0}
	for _, r := range rows {
		label := r[labelKey].Str
		val := r[metricKey].Num
		for _, t := range terms[:2] {
			if strings.Contains(label, t) {
				totals[t] += val
				break
			}
		}
	}
	if totals[terms[0]] == 0 && totals[terms[1]] == 0 {
		return ""
	}
	winner := terms[0]
	if totals[terms[1]] > totals[terms[0]] {
		winner = terms[1]
	}
	unit := ""
	if strings.Contains(strings.ToLower(metricKey), "revenue") {
		unit = "원"
	}
	return fmt.Sprintf(
		"%s vs %s 비교 결과, **%s**이(가) 더 큽니다.\n- %s: **%s**\n- %s: **%s**",
		terms[0], terms[1], winner,
		terms[0], formatValue(domain.NumValue(totals[terms[0]]), unit),
		terms[1], formatValue(domain.NumValue(totals[terms[1]]), unit),
	)
}

var domesticNames = map[string]bool{"south korea": true, "korea": true, "대한민국": true, "한국": true}

func buildDomesticOverseasMessage(question string, rows []domain.Row) string {
	if len(rows) == 0 {
		return ""
	}
	var countryKey, metricKey string
	for _, k := range sortedKeys(rows[0]) {
		v := rows[0][k]
		if countryKey == "" && strings.Contains(strings.ToLower(k), "country") && !v.IsNum {
			countryKey = k
		}
		if metricKey == "" && v.IsNum {
			metricKey = k
		}
	}
	if countryKey == "" || metricKey == "" {
		return ""
	}

	var domestic, overseas float64
	for _, r := range rows {
		c := strings.ToLower(r[countryKey].Str)
		v := r[metricKey].Num
		if domesticNames[c] {
			domestic += v
		} else {
			overseas += v
		}
	}
	if domestic == 0 && overseas == 0 {
		return ""
	}
	total := domestic + overseas
	dPct, oPct := 0.0, 0.0
	if total != 0 {
		dPct = domestic / total * 100
		oPct = overseas / total * 100
	}
	unit := ""
	if strings.Contains(strings.ToLower(metricKey), "revenue") {
		unit = "원"
	}
	return fmt.Sprintf(
		"국내(대한민국) vs 해외(기타 국가) 비교입니다.\n- 국내: **%s** (%.1f%%)\n- 해외: **%s** (%.1f%%)",
		formatValue(domain.NumValue(domestic), unit), dPct,
		formatValue(domain.NumValue(overseas), unit), oPct,
	)
}

func buildDonationConversionMessage(question string, rows []domain.Row) string {
	if len(rows) == 0 {
		return ""
	}
	sample := rows[0]
	var donationKey, eventKey, metricKey string
	for _, k := range sortedKeys(sample) {
		lk := strings.ToLower(k)
		if donationKey == "" && strings.Contains(lk, "is_regular_donation") {
			donationKey = k
		}
		if eventKey == "" && strings.Contains(lk, "eventname") {
			eventKey = k
		}
		if metricKey == "" && sample[k].IsNum {
			metricKey = k
		}
	}
	if donationKey == "" || eventKey == "" || metricKey == "" {
		return ""
	}

	type bucket struct{ click, purchase float64 }
	buckets := map[string]*bucket{}
	order := []string{}
	for _, r := range rows {
		t := r[donationKey].Str
		e := strings.ToLower(r[eventKey].Str)
		v := r[metricKey].Num
		b, ok := buckets[t]
		if !ok {
			b = &bucket{}
			buckets[t] = b
			order = append(order, t)
		}
		switch {
		case strings.Contains(e, "purchase") || strings.Contains(e, "구매"):
			b.purchase += v
		case strings.Contains(e, "click") || strings.Contains(e, "클릭") || strings.Contains(e, "select"):
			b.click += v
		}
	}
	if len(buckets) == 0 {
		return ""
	}
	lines := []string{"후원 유형별 전환율(구매/클릭)입니다."}
	valid := false
	for _, t := range order {
		b := buckets[t]
		if b.click > 0 {
			rate := b.purchase / b.click * 100
			lines = append(lines, fmt.Sprintf("- %s: 클릭 %s회, 구매 %s회, 전환율 **%.1f%%**",
				t, thousands(b.click), thousands(b.purchase), rate))
			valid = true
		}
	}
	if !valid {
		return ""
	}
	return strings.Join(lines, "\n")
}

var namedRatioTermRe = regexp.MustCompile(`[가-힣A-Za-z0-9_]+후원`)

func extractNamedRatioKeywords(question string) []string {
	found := namedRatioTermRe.FindAllString(question, -1)
	var out []string
	seen := map[string]bool{}
	for _, t := range found {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func buildNamedRatioMessage(question string, rows []domain.Row) string {
	keywords := extractNamedRatioKeywords(question)
	if len(keywords) < 2 || len(rows) == 0 {
		return ""
	}
	labelKey, metricKey := firstLabelAndMetric(rows[0])
	if labelKey == "" || metricKey == "" {
		return ""
	}

	buckets := map[string]float64{}
	for _, k := range keywords {
		buckets[k] = 0
	}
	var total float64
	for _, r := range rows {
		label := r[labelKey].Str
		val := r[metricKey].Num
		if val < 0 {
			continue
		}
		total += val
		for _, k := range keywords {
			if strings.Contains(label, k) {
				buckets[k] += val
				break
			}
		}
	}
	var focusTotal float64
	for _, v := range buckets {
		focusTotal += v
	}
	if focusTotal <= 0 {
		return ""
	}

	lines := []string{}
	for _, k := range keywords {
		v := buckets[k]
		share := v / focusTotal * 100
		lines = append(lines, fmt.Sprintf("- %s: **%s** (%.1f%%)", k, formatValue(domain.NumValue(v), "원"), share))
	}
	if other := total - focusTotal; other > 0 {
		lines = append(lines, fmt.Sprintf("- 기타: **%s**", formatValue(domain.NumValue(other), "원")))
	}
	return "요청하신 후원 유형 비중입니다.\n" + strings.Join(lines, "\n")
}

func buildItemProfileMessage(question string, rows []domain.Row) string {
	if len(rows) == 0 {
		return ""
	}
	keys := sortedKeys(rows[0])
	var dimKeys, metricKeys []string
	for _, k := range keys {
		if rows[0][k].IsNum {
			metricKeys = append(metricKeys, k)
		} else {
			dimKeys = append(dimKeys, k)
		}
	}
	hasCustom := false
	hasItemName := false
	for _, k := range dimKeys {
		if strings.HasPrefix(k, "customEvent:") {
			hasCustom = true
		}
		if k == "itemName" {
			hasItemName = true
		}
	}
	if !hasItemName && !hasCustom {
		return ""
	}

	terms := extractEntityTerms(question)
	target := "요청 항목"
	if len(terms) > 0 {
		target = terms[0]
	}

	filtered := rows
	if hasItemName {
		var tmp []domain.Row
		for _, r := range rows {
			if strings.Contains(r["itemName"].Str, target) {
				tmp = append(tmp, r)
			}
		}
		if len(tmp) > 0 {
			filtered = tmp
		}
	}

	lines := []string{fmt.Sprintf("**%s** 관련 항목을 기준으로 확인한 추가 정보입니다.", target)}
	lines = append(lines, fmt.Sprintf("- 관련 항목 수: **%d개**", len(filtered)))

	for _, dk := range []string{"itemCategory", "itemBrand", "itemVariant"} {
		if vals := uniqueNonEmpty(filtered, dk, 5); len(vals) > 0 {
			lines = append(lines, fmt.Sprintf("- %s: %s", dk, strings.Join(vals, ", ")))
		}
	}

	customCount := 0
	for _, ck := range dimKeys {
		if !strings.HasPrefix(ck, "customEvent:") {
			continue
		}
		if customCount >= 8 {
			break
		}
		customCount++
		if vals := uniqueNonEmpty(filtered, ck, 6); len(vals) > 0 {
			pretty := strings.TrimPrefix(ck, "customEvent:")
			lines = append(lines, fmt.Sprintf("- %s: %s", pretty, strings.Join(vals, ", ")))
		}
	}

	if len(metricKeys) > 0 {
		mk := metricKeys[0]
		var total float64
		for _, r := range filtered {
			total += r[mk].Num
		}
		unit := ""
		if strings.Contains(strings.ToLower(mk), "revenue") {
			unit = "원"
		}
		lines = append(lines, fmt.Sprintf("- %s 합계: **%s**", mk, formatValue(domain.NumValue(total), unit)))
	}
	return strings.Join(lines, "\n")
}

func uniqueNonEmpty(rows []domain.Row, key string, limit int) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range rows {
		v := strings.TrimSpace(r[key].Str)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}
