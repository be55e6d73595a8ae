// Package relation classifies how a follow-up question relates to the
// prior conversation state, via the LLM port with a safe fallback.
package relation

import (
	"context"

	"github.com/rs/zerolog/log"
	"nugget/internal/domain"
	"nugget/internal/llm"
)

type Classifier struct {
	llm llm.Port
}

func New(port llm.Port) *Classifier {
	return &Classifier{llm: port}
}

var validRelations = map[string]domain.Relation{
	string(domain.RelationRefine):          domain.RelationRefine,
	string(domain.RelationNewTopic):        domain.RelationNewTopic,
	string(domain.RelationMetricSwitch):    domain.RelationMetricSwitch,
	string(domain.RelationDimensionSwitch): domain.RelationDimensionSwitch,
}

// Classify calls the LLM port and falls back to new_topic on any error,
// malformed output, or value outside the four-enum. Callers must never
// propagate a raw LLM error past this boundary: new_topic is always the
// safe default.
func (c *Classifier) Classify(ctx context.Context, question string, lastState *domain.ConversationState, deltaMetrics, deltaDims []string) domain.Relation {
	if lastState == nil {
		return domain.RelationNewTopic
	}

	req := llm.RelationRequest{
		Question:     question,
		LastMetrics:  lastState.Metrics,
		LastDims:     lastState.Dimensions,
		DeltaMetrics: deltaMetrics,
		DeltaDims:    deltaDims,
	}

	raw, err := c.llm.ClassifyRelation(ctx, req)
	if err != nil {
		log.Debug().Err(err).Msg("relation classifier: llm call failed, falling back to new_topic")
		return domain.RelationNewTopic
	}

	rel, ok := validRelations[raw]
	if !ok {
		log.Debug().Str("raw", raw).Msg("relation classifier: unrecognized relation, falling back to new_topic")
		return domain.RelationNewTopic
	}
	return rel
}
