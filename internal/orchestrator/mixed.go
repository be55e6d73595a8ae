package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"nugget/internal/domain"
	"nugget/internal/fileengine"
)

// MixedTurnRequest asks the same question of both the analytics route
// and an uploaded file, then asks the LLM port for one unified answer
// citing both. Selected by the same upstream router that otherwise picks
// between the analytics route and the File Engine.
type MixedTurnRequest struct {
	ConversationID string
	PropertyID     string
	Question       string
	Table          *fileengine.Table
}

// HandleMixed runs both routes and synthesizes a single Korean response.
// Either route failing still yields an answer grounded on the other.
func (o *Orchestrator) HandleMixed(ctx context.Context, req MixedTurnRequest) domain.Response {
	analyticsResp := o.Handle(ctx, TurnRequest{
		ConversationID: req.ConversationID,
		PropertyID:     req.PropertyID,
		Question:       req.Question,
	})

	fileResult := o.HandleFile(ctx, FileTurnRequest{
		ConversationID: req.ConversationID,
		Question:       req.Question,
		Table:          req.Table,
	})

	prompt := fmt.Sprintf(
		"질문: %s\n"+
			"분석 데이터 기준 답변: %s\n"+
			"업로드 파일 기준 답변: %s\n"+
			"두 답변을 종합해 하나의 한국어 답변으로 정리해라. "+
			"두 출처 간 수치가 다르면 그 사실도 짚어줘. 3문장 이내로 답해라.",
		req.Question, analyticsResp.Message, fileResult.Message,
	)

	message, err := o.llm.Insight(ctx, prompt)
	if err != nil || strings.TrimSpace(message) == "" {
		log.Debug().Err(err).Msg("orchestrator: mixed-source synthesis llm call failed, concatenating both answers")
		message = fmt.Sprintf("[분석 데이터] %s\n\n[업로드 파일] %s", analyticsResp.Message, fileResult.Message)
	}

	resp := domain.Response{
		Status:  domain.StatusOK,
		Message: strings.TrimSpace(message),
		Account: req.PropertyID,
		Period:  analyticsResp.Period,
		Blocks:  analyticsResp.Blocks,
	}
	if analyticsResp.Status != domain.StatusOK {
		resp.Status = domain.StatusPartialError
	}
	if len(fileResult.Rows) > 0 {
		resp.RawData = toDomainRows(fileResult.Rows)
	}
	return resp
}

func toDomainRows(rows []map[string]any) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		r := domain.Row{}
		for k, v := range row {
			switch val := v.(type) {
			case float64:
				r[k] = domain.NumValue(val)
			case int:
				r[k] = domain.NumValue(float64(val))
			case bool:
				r[k] = domain.BoolValue(val)
			case nil:
				r[k] = domain.NullValue()
			default:
				r[k] = domain.StrValue(fmt.Sprintf("%v", val))
			}
		}
		out = append(out, r)
	}
	return out
}
