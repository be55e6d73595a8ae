// Package orchestrator wires the Candidate Extractor, Relation
// Classifier, State Policy, Planner, Plan Executor, and Response Adapter
// into one turn handler, plus the explanatory/period-only short-circuits
// and the conversation-state read/write around every turn.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"nugget/internal/adapter"
	"nugget/internal/conversation"
	"nugget/internal/domain"
	pipelineerrors "nugget/internal/domain/errors"
	"nugget/internal/executor"
	"nugget/internal/extractor"
	"nugget/internal/fileengine"
	"nugget/internal/infrastructure/observer"
	"nugget/internal/llm"
	"nugget/internal/planner"
	"nugget/internal/registry"
	"nugget/internal/relation"
	"nugget/internal/statepolicy"
)

// TurnRequest is one incoming question for the analytics route.
type TurnRequest struct {
	ConversationID string
	PropertyID     string
	Question       string
}

// Orchestrator runs the full question-to-response turn for the
// analytics route (components C, D, E, F, G, H in spec terms).
type Orchestrator struct {
	registry  *registry.Registry
	extractor *extractor.Extractor
	relation  *relation.Classifier
	planner   *planner.Planner
	executor  *executor.Executor
	adapter   *adapter.Adapter
	llm       llm.Port
	store     conversation.Store
	observers *observer.Manager
	engine    *fileengine.Engine
}

func New(
	reg *registry.Registry,
	ext *extractor.Extractor,
	rel *relation.Classifier,
	pln *planner.Planner,
	exe *executor.Executor,
	adp *adapter.Adapter,
	llmPort llm.Port,
	store conversation.Store,
	observers *observer.Manager,
	engine *fileengine.Engine,
) *Orchestrator {
	return &Orchestrator{
		registry:  reg,
		extractor: ext,
		relation:  rel,
		planner:   pln,
		executor:  exe,
		adapter:   adp,
		llm:       llmPort,
		store:     store,
		observers: observers,
		engine:    engine,
	}
}

// stateKey namespaces the conversation store by source, so a source
// switch within the same conversation id can never read the other
// source's state back (the supplemented source-change guard).
func stateKey(conversationID string, source statepolicy.Source) string {
	return conversationID + "::" + string(source)
}

// Handle runs one analytics-route turn end to end.
func (o *Orchestrator) Handle(ctx context.Context, req TurnRequest) domain.Response {
	turnStart := time.Now()
	key := stateKey(req.ConversationID, statepolicy.SourceAnalytics)

	var lastState *domain.ConversationState
	if req.ConversationID != "" {
		var err error
		lastState, err = o.store.LoadLastState(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("conversation_id", req.ConversationID).Msg("orchestrator: failed to load last state, continuing without it")
		}
	}

	if looksExplanatoryQuestion(req.Question) && !hasDataSignal(req.Question) {
		resp := o.explanatoryResponse(ctx, req.Question, req.PropertyID)
		o.finish(ctx, req, domain.IntentMetricSingle, resp, turnStart)
		return resp
	}

	extractStart := time.Now()
	extraction := o.extractor.Extract(req.Question, lastState)
	o.observers.NotifyExtractionDone(req.ConversationID, string(extraction.Intent), time.Since(extractStart))

	if isPeriodOnlyQuestion(req.Question) {
		resp, ok := o.periodOnlyResponse(req, extraction, lastState)
		if ok {
			o.finish(ctx, req, extraction.Intent, resp, turnStart)
			return resp
		}
	}

	inherited := o.resolveInherited(ctx, req, extraction, lastState)

	planStart := time.Now()
	plan, err := o.planner.Plan(req.ConversationID, req.PropertyID, extraction, inherited)
	if err != nil {
		resp := responseFromPlanError(err)
		o.finish(ctx, req, extraction.Intent, resp, turnStart)
		return resp
	}
	o.observers.NotifyPlanBuilt(req.ConversationID, len(plan.Blocks), time.Since(planStart))

	result, err := o.executor.Execute(ctx, req.ConversationID, plan)
	o.notifyBlocks(req.ConversationID, result)
	if err != nil {
		resp := domain.Response{Status: domain.StatusError, Message: "데이터 조회에 실패했습니다. 잠시 후 다시 시도해 주세요."}
		o.finish(ctx, req, extraction.Intent, resp, turnStart)
		return resp
	}

	period := fmt.Sprintf("%s ~ %s", plan.StartDate, plan.EndDate)
	resp := o.adapter.Adapt(req.Question, result.Blocks, req.PropertyID, period)
	if result.FailedBlocks > 0 && resp.Status == domain.StatusOK {
		resp.Status = domain.StatusPartialError
	}

	o.persistState(ctx, key, plan, extraction, result)
	o.finish(ctx, req, extraction.Intent, resp, turnStart)
	return resp
}

func (o *Orchestrator) resolveInherited(ctx context.Context, req TurnRequest, extraction domain.ExtractionResult, lastState *domain.ConversationState) *domain.ConversationState {
	if lastState == nil {
		return nil
	}

	deltaMetrics := diffStrings(extraction.MetricCandidates, lastState.Metrics)
	deltaDims := diffDimStrings(extraction.DimensionCandidates, lastState.Dimensions)
	rel := o.relation.Classify(ctx, req.Question, lastState, deltaMetrics, deltaDims)
	inherited := statepolicy.Apply(rel, lastState)

	if dim, value, ok := statepolicy.ApplyEntityMemory(req.Question, lastState); ok {
		extraction.Modifiers.EntityContains = append(extraction.Modifiers.EntityContains, value)
		extraction.DimensionCandidates = append(extraction.DimensionCandidates, domain.Candidate{
			Name: dim, Score: 1.0, MatchedBy: domain.MatchedSynthetic, Scope: o.registry.ScopeOf(dim),
		})
	}

	return inherited
}

func diffStrings(cands []domain.Candidate, last []string) []string {
	lastSet := map[string]bool{}
	for _, m := range last {
		lastSet[m] = true
	}
	var out []string
	for _, c := range cands {
		if !lastSet[c.Name] {
			out = append(out, c.Name)
		}
	}
	return out
}

func diffDimStrings(cands []domain.Candidate, last []string) []string {
	return diffStrings(cands, last)
}

func responseFromPlanError(err error) domain.Response {
	if pe, ok := err.(*pipelineerrors.PipelineError); ok && pe.Kind == pipelineerrors.Clarify {
		return domain.Response{Status: domain.StatusClarify, Message: pe.Message}
	}
	return domain.Response{Status: domain.StatusError, Message: "질문을 처리할 수 없습니다."}
}

func (o *Orchestrator) notifyBlocks(conversationID string, result executor.Result) {
	for _, b := range result.Blocks {
		rows := len(b.Rows)
		if b.Total != nil {
			rows = 1
		}
		o.observers.NotifyBlockExecuted(conversationID, b.BlockID, rows, nil)
	}
	if result.FailedBlocks > 0 {
		o.observers.NotifyBlockExecuted(conversationID, "", 0, fmt.Errorf("%d block(s) failed", result.FailedBlocks))
	}
}

func (o *Orchestrator) persistState(ctx context.Context, key string, plan *domain.ExecutionPlan, extraction domain.ExtractionResult, result executor.Result) {
	if key == "::"+string(statepolicy.SourceAnalytics) {
		return // no conversation id: nothing to persist
	}
	if result.AnchorBlock == nil {
		return
	}

	newState := &domain.ConversationState{
		Metrics:    result.AnchorBlock.Metrics,
		Dimensions: result.AnchorBlock.Dimensions,
		StartDate:  plan.StartDate,
		EndDate:    plan.EndDate,
		Intent:     extraction.Intent,
		ScopeType:  result.AnchorBlock.Scope,
	}
	if len(extraction.EntityTerms) > 0 && len(result.AnchorBlock.Dimensions) > 0 {
		newState.LastEntity = &domain.EntityMemory{
			Dimension: result.AnchorBlock.Dimensions[0],
			Value:     extraction.EntityTerms[0],
		}
	}

	if err := o.store.SaveLastState(ctx, key, newState); err != nil {
		log.Warn().Err(err).Msg("orchestrator: failed to save last state")
	}
	if err := o.store.SaveLastResult(ctx, key, result.Blocks); err != nil {
		log.Warn().Err(err).Msg("orchestrator: failed to save last result")
	}
}

func (o *Orchestrator) finish(ctx context.Context, req TurnRequest, intent domain.Intent, resp domain.Response, turnStart time.Time) {
	o.observers.NotifyResponseReady(req.ConversationID, string(resp.Status), time.Since(turnStart))
	if req.ConversationID == "" {
		return
	}
	ev := conversation.InteractionEvent{
		ConversationID: req.ConversationID,
		Question:       req.Question,
		Intent:         intent,
		Source:         string(statepolicy.SourceAnalytics),
		Status:         resp.Status,
		Timestamp:      turnStart,
	}
	if err := o.store.SaveEvent(ctx, ev); err != nil {
		log.Debug().Err(err).Msg("orchestrator: failed to log interaction event")
	}
}
