package fileengine

import "strings"

// IntentType is the file engine's own intent vocabulary. Distinct from
// the analytics pipeline's domain.Intent: file questions include
// exploration intents (schema/preview/overview) that GA4 questions
// never need.
type IntentType string

const (
	IntentGuidance      IntentType = "guidance"
	IntentTrend         IntentType = "trend"
	IntentCompare       IntentType = "compare"
	IntentSchema        IntentType = "schema"
	IntentColumnsSummary IntentType = "columns_summary"
	IntentPreview       IntentType = "preview"
	IntentOverview      IntentType = "overview"
	IntentGroupBy       IntentType = "groupby"
	IntentAggregate     IntentType = "aggregate"
	IntentCountUsers    IntentType = "count_users"
	IntentCountAdmin    IntentType = "count_admin"
	IntentExplain       IntentType = "explain"
	IntentColumnProbe   IntentType = "column_probe"
	IntentColumnCount   IntentType = "column_count"
	IntentInsight       IntentType = "insight"
)

// Intent is the file engine's 3-level classification of one question.
type Intent struct {
	Type     IntentType
	Keywords []string
	IsFollowup bool
}

var levelOneRules = []struct {
	words []string
	t     IntentType
}{
	{[]string{"뭘 물어", "어떻게 질문", "뭐부터", "초보", "어렵", "잘 모르"}, IntentGuidance},
	{[]string{"추이", "트렌드", "일별", "월별", "변화"}, IntentTrend},
	{[]string{"비교", "대비", "vs", "차이"}, IntentCompare},
	{[]string{"구조", "컬럼", "열", "schema", "structure"}, IntentSchema},
	{[]string{"어떤 데이터", "무슨 데이터", "또 어떤", "컬럼 뭐", "항목 뭐", "뭐가 들어", "무엇이 들어", "어떤게 있어"}, IntentColumnsSummary},
	{[]string{"행", "샘플", "예시", "preview", "sample", "보여줘", "raw data"}, IntentPreview},
	{[]string{"개요", "요약", "overview", "summary", "전체"}, IntentOverview},
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// DetectIntent applies the 3-level rule cascade (exploration ->
// aggregation -> follow-up) first-match-wins, same order as the
// python cascade this is grounded on. A question made only of
// follow-up words ("응 보여줘") replays lastIntent before the cascade
// runs, so the preview rule's "보여줘" does not capture it.
func DetectIntent(question string, lastIntent *Intent) Intent {
	q := strings.ToLower(question)

	if lastIntent != nil {
		rest := q
		for _, w := range []string{"응", "그래", "보여줘", "설명해줘"} {
			rest = strings.ReplaceAll(rest, w, "")
		}
		if strings.Trim(rest, " ,.!?~") == "" {
			followup := *lastIntent
			followup.IsFollowup = true
			return followup
		}
	}

	for _, rule := range levelOneRules {
		if containsAny(q, rule.words) {
			return Intent{Type: rule.t, Keywords: nil}
		}
	}

	switch {
	case containsAny(q, []string{"별", "타입별", "종류별", "카테고리별", "by ", "그룹"}):
		return Intent{Type: IntentGroupBy, Keywords: []string{"별"}}
	case containsAny(q, []string{"평균", "average", "avg", "mean"}):
		return Intent{Type: IntentAggregate, Keywords: []string{"평균"}}
	case containsAny(q, []string{"합계", "총", "sum", "total"}):
		return Intent{Type: IntentAggregate, Keywords: []string{"합계"}}
	case containsAny(q, []string{"개수", "count", "몇 개", "몇개"}):
		return Intent{Type: IntentAggregate, Keywords: []string{"개수"}}
	}

	hasPersonWord := containsAny(q, []string{"사용자", "유저", "회원", "인원", "사람"})
	hasCountWord := containsAny(q, []string{"얼마나", "몇", "수", "명", "몇명", "몇 명"})
	if hasPersonWord && hasCountWord {
		return Intent{Type: IntentCountUsers}
	}
	hasAdminWord := containsAny(q, []string{"어드민", "관리자", "admin"})
	if hasAdminWord && containsAny(q, []string{"얼마나", "몇", "수"}) {
		return Intent{Type: IntentCountAdmin}
	}
	if containsAny(q, []string{"무슨 뜻", "뜻이", "의미", "그게 무슨"}) {
		return Intent{Type: IntentExplain}
	}

	if containsAny(q, []string{"응", "그래", "보여줘", "설명해줘"}) {
		if lastIntent != nil {
			followup := *lastIntent
			followup.IsFollowup = true
			return followup
		}
		return Intent{Type: IntentInsight}
	}

	return Intent{Type: IntentInsight}
}
