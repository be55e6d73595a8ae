// Package llm defines the pluggable LLM port used by the Relation
// Classifier and the File Engine's Level-3 insight step, plus an
// optional structured-intent fallback (ExtractIntent).
package llm

import "context"

// RelationRequest is the input to ClassifyRelation.
type RelationRequest struct {
	Question     string
	LastMetrics  []string
	LastDims     []string
	DeltaMetrics []string
	DeltaDims    []string
}

// IntentFallbackResult is the optional structured output of ExtractIntent.
type IntentFallbackResult struct {
	Intent     string
	Metrics    []string
	Dimensions []string
	Limit      int
}

// Port is the pluggable LLM collaborator. Every method returns an error
// the caller treats as "unavailable" rather than propagating a stack
// trace to the user.
type Port interface {
	// ClassifyRelation returns one of refine/new_topic/metric_switch/
	// dimension_switch. Callers must still apply the new_topic fallback
	// themselves on error or on an unrecognized value.
	ClassifyRelation(ctx context.Context, req RelationRequest) (string, error)

	// ExtractIntent is an optional structured-intent fallback. No
	// component of the turn pipeline calls it; the Candidate Extractor
	// works from registry and semantic-index matches only.
	ExtractIntent(ctx context.Context, question string) (IntentFallbackResult, error)

	// Insight produces a short Korean narrative over a pre-aggregated
	// summary, used by the File Engine's Level-3 intent and the mixed
	// source comparative engine.
	Insight(ctx context.Context, prompt string) (string, error)
}
