package adapter

import (
	"regexp"
	"strings"
)

// extractEntityTerms pulls candidate entity names out of a free-form
// question, for use by the comparison/ratio/profile synthesizers. This
// mirrors the Candidate Extractor's own term extraction but is kept
// separate since the adapter operates on the original question text
// rather than pre-extracted modifiers.
var (
	quotedTermRe   = regexp.MustCompile(`["']([^"']{2,40})["']`)
	aboutTermRe    = regexp.MustCompile(`([가-힣A-Za-z0-9_\-/\[\] ]{2,40})\s*(?:에\s*대해|에\s*대해서|관련|기준|만|비중|추이|원인|정보)`)
	pairTermRe     = regexp.MustCompile(`([가-힣A-Za-z0-9_\-/\[\]]{2,30})\s*[와과]\s*([가-힣A-Za-z0-9_\-/\[\]]{2,30})`)
	listTermRe     = regexp.MustCompile(`([가-힣A-Za-z0-9_\-/\[\] ]{2,30})\s*,\s*([가-힣A-Za-z0-9_\-/\[\] ]{2,30})\s*같은`)
	donationTermRe = regexp.MustCompile(`[가-힣A-Za-z0-9_]+후원`)

	trailingSuffixRe = regexp.MustCompile(`\s*(관련|기준|정보|상세|매출|전환|추이|원인|분석|채널|캠페인)$`)
	trailingJosaRe   = regexp.MustCompile(`(은|는|이|가|을|를|에|의)$`)
	leadingQuestionRe = regexp.MustCompile(`^(어떤|무슨|무엇)\s*`)
)

var entityTermStopwords = map[string]bool{
	"무엇": true, "어떤": true, "더": true, "알": true, "수": true, "있어": true, "있는": true,
	"기준": true, "관련": true, "정보": true, "비중": true, "추이": true, "원인": true, "분석": true,
	"상세": true, "매개변수": true, "파라미터": true, "항목": true, "상품": true, "아이템": true,
	"후원 이름": true, "후원명": true, "donation_name": true, "이탈": true, "이탈율": true,
	"이탈률": true, "활성": true, "신규": true, "매출": true, "수익": true, "세션": true, "전환": true,
}

func extractEntityTerms(question string) []string {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil
	}

	var flat []string
	flat = append(flat, quotedTermRe.FindAllString(q, -1)...)
	for _, m := range aboutTermRe.FindAllStringSubmatch(q, -1) {
		flat = append(flat, m[1])
	}
	for _, m := range pairTermRe.FindAllStringSubmatch(q, -1) {
		flat = append(flat, m[1], m[2])
	}
	for _, m := range listTermRe.FindAllStringSubmatch(q, -1) {
		flat = append(flat, m[1], m[2])
	}
	flat = append(flat, donationTermRe.FindAllString(q, -1)...)

	var out []string
	seen := map[string]bool{}
	for _, raw := range flat {
		t := cleanEntityTermLocal(strings.Trim(raw, `"'`))
		if len([]rune(t)) < 2 || entityTermStopwords[t] {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if len(out) == 4 {
			break
		}
	}
	return out
}

func cleanEntityTermLocal(term string) string {
	t := strings.Join(strings.Fields(term), " ")
	for {
		prev := t
		t = trailingSuffixRe.ReplaceAllString(t, "")
		t = trailingJosaRe.ReplaceAllString(t, "")
		t = strings.TrimSpace(t)
		if t == prev {
			break
		}
	}
	t = leadingQuestionRe.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}
