package extractor

import (
	"regexp"
	"strings"
)

var (
	quotedRe       = regexp.MustCompile(`["']([^"']{2,40})["']`)
	aboutRe        = regexp.MustCompile(`([가-힣A-Za-z0-9_\-/\[\] ]{2,40})\s*(?:에\s*대해|에\s*대해서|관련|기준|만|비중|추이|원인|정보)`)
	pairRe         = regexp.MustCompile(`([가-힣A-Za-z0-9_\-/\[\]]{2,30})\s*[와과]\s*([가-힣A-Za-z0-9_\-/\[\]]{2,30})`)
	listRe         = regexp.MustCompile(`([가-힣A-Za-z0-9_\-/\[\] ]{2,30})\s*,\s*([가-힣A-Za-z0-9_\-/\[\] ]{2,30})\s*같은`)
	countryRe      = regexp.MustCompile(`([가-힣A-Za-z0-9_\-/\[\] ]{2,40})\s*국가별`)
	possessiveRe   = regexp.MustCompile(`([가-힣A-Za-z0-9_\-/\[\]]{2,40})\s*의\s*`)
	donationRe     = regexp.MustCompile(`([가-힣A-Za-z0-9_]+후원)`)
	byPhraseRe     = regexp.MustCompile(`[A-Za-z0-9_가-힣]+\s*별.*$`)
	leadRankRe     = regexp.MustCompile(`^(가장|최고|최저|상위|하위)\s*`)
	rankNumberRe   = regexp.MustCompile(`(?i)(top\s*\d+|상위\s*\d+|\d+\s*위|\d+\s*[-~]\s*\d+)\s*`)
	trailingJosaRe = regexp.MustCompile(`\s*(관련|기준|정보|상세|매출|전환|추이|원인|분석|채널|캠페인)$`)
	josaSuffixRe   = regexp.MustCompile(`(은|는|이|가|을|를|에|의|중|중에|쪽|쪽에)$`)
	leadQuestionRe = regexp.MustCompile(`^(어떤|무슨|무엇)\s*`)

	channelTokens = []string{"display", "paid", "organic", "direct", "referral", "unassigned", "cross-network"}

	entityStopwords = map[string]struct{}{
		"무엇": {}, "어떤": {}, "더": {}, "알": {}, "수": {}, "있어": {}, "있는": {}, "기준": {}, "관련": {}, "정보": {},
		"비중": {}, "추이": {}, "원인": {}, "분석": {}, "상세": {}, "매개변수": {}, "파라미터": {}, "항목": {}, "상품": {}, "아이템": {},
		"후원 이름": {}, "후원명": {}, "donation_name": {}, "이탈": {}, "이탈율": {}, "이탈률": {}, "활성": {}, "신규": {}, "매출": {}, "수익": {}, "세션": {}, "전환": {},
		"클릭": {}, "구매": {}, "구매로": {}, "판매": {}, "프로그램": {}, "국가": {},
		"상품별": {}, "아이템별": {}, "제품별": {}, "지난주": {}, "이번주": {}, "지난달": {}, "이번달": {}, "어제": {}, "오늘": {},
		"첫후원": {}, "첫구매": {}, "처음후원": {}, "처음구매": {}, "구매한": {}, "사용자수": {}, "사용자 수": {},
		"후원자": {}, "구매자": {}, "유형": {}, "타입": {}, "전체": {},
	}

	genericTerms = map[string]struct{}{"top": {}, "ga4": {}, "data": {}, "report": {}}
	noiseTokens  = []string{"event", "이벤트", "기준", "purchase", "click", "donation_name"}
)

// extractEntityTerms collects quoted spans, noun-조사 constructions
// (X에 대해, X와 Y, X 기준, possessives, lists), "~후원" names and known
// channel tokens, capped at 4 cleaned terms. It has no snake_case pass,
// and a term containing event/click/purchase is dropped as noise, so
// event-like tokens such as donation_click are not returned here.
func extractEntityTerms(question string) []string {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil
	}

	var raw []string
	raw = append(raw, quotedRe.FindAllStringSubmatch(q, -1)...)
	raw = append(raw, aboutRe.FindAllStringSubmatch(q, -1)...)
	raw = append(raw, pairRe.FindAllStringSubmatch(q, -1)...)
	raw = append(raw, listRe.FindAllStringSubmatch(q, -1)...)
	raw = append(raw, countryRe.FindAllStringSubmatch(q, -1)...)
	raw = append(raw, possessiveRe.FindAllStringSubmatch(q, -1)...)

	var flat []string
	for _, m := range raw {
		flat = append(flat, m[1:]...)
	}
	for _, m := range donationRe.FindAllStringSubmatch(q, -1) {
		flat = append(flat, m[1])
	}
	lowerQ := strings.ToLower(q)
	for _, tok := range channelTokens {
		if strings.Contains(lowerQ, tok) {
			flat = append(flat, tok)
		}
	}

	var uniq []string
	seen := map[string]struct{}{}
	for _, r := range flat {
		t := cleanEntityTerm(r)
		if len([]rune(t)) < 2 {
			continue
		}
		if _, bad := entityStopwords[t]; bad {
			continue
		}
		if _, bad := genericTerms[strings.ToLower(t)]; bad {
			continue
		}
		if len(strings.Fields(t)) >= 3 && containsAny(t, "가장", "상위", "매출", "상품", "사용자") {
			continue
		}
		if containsAny(strings.ToLower(t), noiseTokens...) {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, t)
	}
	if len(uniq) > 4 {
		uniq = uniq[:4]
	}
	return uniq
}

func cleanEntityTerm(term string) string {
	t := strings.Join(strings.Fields(term), " ")
	t = byPhraseRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	t = leadRankRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	t = rankNumberRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	for {
		prev := t
		t = trailingJosaRe.ReplaceAllString(t, "")
		t = strings.TrimSpace(t)
		t = josaSuffixRe.ReplaceAllString(t, "")
		t = strings.TrimSpace(t)
		if t == prev {
			break
		}
	}
	t = leadQuestionRe.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

var (
	snakeTokenRe  = regexp.MustCompile(`[a-z][a-z0-9]*(?:_[a-z0-9]+)+`)
	clickTokenRe  = regexp.MustCompile(`\b([a-z0-9]+)\s*클릭\b`)
	eventPrefixRe = regexp.MustCompile(`이벤트\s*([a-z][a-z0-9_\-]{2,40})`)
)

var knownCustomParamTokens = map[string]struct{}{
	"banner_name": {}, "button_name": {}, "click_button": {}, "click_location": {}, "click_section": {},
	"click_text": {}, "content_category": {}, "content_name": {}, "content_type": {}, "country_name": {},
	"detail_category": {}, "donation_name": {}, "event_category": {}, "event_label": {}, "is_regular_donation": {},
	"letter_translation": {}, "main_category": {}, "menu_name": {}, "payment_type": {}, "percent_scrolled": {},
	"referrer_host": {}, "referrer_pathname": {}, "step": {}, "sub_category": {},
	"domestic_children_count": {}, "overseas_children_count": {},
}

// extractEventNameToken finds a snake_case or "X클릭"-shaped event name
// token, excluding tokens that are actually known custom-parameter names.
func extractEventNameToken(question string) string {
	q := strings.TrimSpace(question)
	if q == "" {
		return ""
	}
	lower := strings.ToLower(q)

	if m := snakeTokenRe.FindString(lower); m != "" {
		if _, known := knownCustomParamTokens[m]; known {
			return ""
		}
		return m
	}
	if m := clickTokenRe.FindStringSubmatch(lower); m != nil {
		return m[1] + "_click"
	}
	if m := eventPrefixRe.FindStringSubmatch(lower); m != nil {
		token := strings.ReplaceAll(m[1], "-", "_")
		if _, known := knownCustomParamTokens[token]; known {
			return ""
		}
		return token
	}
	return ""
}
