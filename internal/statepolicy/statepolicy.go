// Package statepolicy applies a relation to the prior ConversationState
// before the Planner reads it, deciding which slots are inherited versus
// dropped.
package statepolicy

import "nugget/internal/domain"

// Source distinguishes the two independent conversation-state keys
// (analytics vs file), per spec's Open Question #3 and its
// source-change-guard supplement.
type Source string

const (
	SourceAnalytics Source = "ga4"
	SourceFile      Source = "file"
)

// inheritTable is the fixed §4.E table: relation -> {inherit metrics,
// inherit dims}. Dates are always inheritable.
var inheritTable = map[domain.Relation]struct{ metrics, dims bool }{
	domain.RelationRefine:          {metrics: true, dims: true},
	domain.RelationMetricSwitch:    {metrics: false, dims: true},
	domain.RelationDimensionSwitch: {metrics: true, dims: false},
	domain.RelationNewTopic:        {metrics: false, dims: false},
}

// Apply projects lastState through relation's inheritance rule, returning
// the state the Planner should treat as inherited. A nil lastState always
// yields nil.
func Apply(relation domain.Relation, lastState *domain.ConversationState) *domain.ConversationState {
	if lastState == nil {
		return nil
	}

	rule, ok := inheritTable[relation]
	if !ok {
		rule = inheritTable[domain.RelationNewTopic]
	}

	out := &domain.ConversationState{
		StartDate: lastState.StartDate,
		EndDate:   lastState.EndDate,
		Intent:    lastState.Intent,
		ScopeType: lastState.ScopeType,
	}
	if rule.metrics {
		out.Metrics = append([]string(nil), lastState.Metrics...)
	}
	if rule.dims {
		out.Dimensions = append([]string(nil), lastState.Dimensions...)
	}
	out.LastEntity = lastState.LastEntity
	out.EventFilter = lastState.EventFilter
	out.Periods = lastState.Periods
	return out
}

// ApplyEntityMemory implements the supplemented "그 " follow-up rule: a
// bare pronoun referring back to the last resolved entity re-applies it
// as a dimension filter.
func ApplyEntityMemory(question string, state *domain.ConversationState) (dimension, value string, ok bool) {
	if state == nil || state.LastEntity == nil {
		return "", "", false
	}
	if !containsBarePronoun(question) {
		return "", "", false
	}
	return state.LastEntity.Dimension, state.LastEntity.Value, true
}

func containsBarePronoun(question string) bool {
	for i := 0; i+len("그 ") <= len(question); i++ {
		if question[i:i+len("그 ")] == "그 " {
			return true
		}
	}
	return false
}

// GuardSourceChange implements the supplemented source-change guard: when
// the conversation switches between the analytics route and the File
// Engine, state from the other source must never carry over.
func GuardSourceChange(previousSource, currentSource Source, state *domain.ConversationState) *domain.ConversationState {
	if previousSource != currentSource {
		return nil
	}
	return state
}
