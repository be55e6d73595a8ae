package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"nugget/internal/domain"
)

var explainTokens = []string{"뭐야", "무엇", "무슨 뜻", "뜻", "의미", "정의", "설명해", "뭔지", "알려줘"}

func looksExplanatoryQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, t := range explainTokens {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

var dataSignalTokens = []string{
	"매출", "수익", "사용자", "세션", "이벤트", "클릭", "구매", "비율", "율",
	"추이", "비교", "상위", "top", "채널", "소스", "매체", "국가", "기간", "전주", "지난주",
	"후원", "상품", "이름", "후원명", "경로", "트랜잭션", "처음", "신규",
}

func hasDataSignal(question string) bool {
	q := strings.ToLower(question)
	for _, t := range dataSignalTokens {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

const fallbackExplanation = "질문하신 항목은 현재 연결된 데이터만으로 업무 정의를 확정할 수 없습니다. " +
	"일반적으로는 분석용 라벨(예: 상품/후원/이벤트 분류값)로 사용됩니다. " +
	"정확한 정의는 측정기준(메타데이터) 문서에서 확인해 주세요."

// explanatoryResponse answers a definition-style question that carries no
// analytics-data signal, via the LLM port with a deterministic fallback.
func (o *Orchestrator) explanatoryResponse(ctx context.Context, question, account string) domain.Response {
	message := fallbackExplanation
	prompt := fmt.Sprintf(
		"질문: %s\n현재 데이터 조회로는 정의를 확정할 수 없는 상황이다. "+
			"일반 설명과 확인 방법(메타데이터/정의 문서 확인)을 한국어로 3문장 이내로 답해라.",
		question,
	)
	if reply, err := o.llm.Insight(ctx, prompt); err == nil && strings.TrimSpace(reply) != "" {
		message = strings.TrimSpace(reply)
	} else if err != nil {
		log.Debug().Err(err).Msg("orchestrator: explanatory llm call failed, using deterministic fallback")
	}

	return domain.Response{Status: domain.StatusOK, Message: message, Account: account}
}

var periodTerms = []string{
	"언제부터", "언제까지", "기간", "몇일부터", "몇일", "from", "to",
	"기준이야", "기준이야?", "기준인가", "기준이냐", "기준이", "기준은", "기준",
}
var relativePeriodTerms = []string{"지난주", "이번주", "지난달", "이번달", "어제", "오늘"}
var analyticsTokens = []string{
	"매출", "수익", "사용자", "세션", "전환", "클릭", "구매", "후원", "후원자", "신규", "처음",
	"top", "상위", "비율", "추이", "원인", "분석", "상품", "경로", "채널", "소스", "매체",
}

func isPeriodOnlyQuestion(question string) bool {
	q := strings.ToLower(question)
	isPeriodInquiry := containsAny(q, periodTerms) || containsAny(q, relativePeriodTerms)
	if !isPeriodInquiry {
		return false
	}
	return !containsAny(q, analyticsTokens)
}

func containsAny(q string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

// periodOnlyResponse answers "what period is this?" directly from the
// resolved or inherited date window, without building a plan. ok is
// false when neither source has a resolved date, so the caller should
// fall through to the normal planning path.
func (o *Orchestrator) periodOnlyResponse(req TurnRequest, extraction domain.ExtractionResult, lastState *domain.ConversationState) (domain.Response, bool) {
	start, end := extraction.DateRange.StartDate, extraction.DateRange.EndDate
	if start == "" || end == "" {
		if lastState != nil {
			start, end = lastState.StartDate, lastState.EndDate
		}
	}
	if start == "" || end == "" {
		return domain.Response{}, false
	}

	period := fmt.Sprintf("%s ~ %s", start, end)
	return domain.Response{
		Status:  domain.StatusOK,
		Message: fmt.Sprintf("현재 분석 기준 기간은 **%s** 입니다.", period),
		Account: req.PropertyID,
		Period:  period,
	}, true
}
