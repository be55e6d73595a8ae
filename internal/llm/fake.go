package llm

import "context"

// FakePort returns fixture responses, making the pipeline deterministic
// and network-free for tests.
type FakePort struct {
	Relation       string
	RelationErr    error
	IntentResult   IntentFallbackResult
	IntentErr      error
	InsightMessage string
	InsightErr     error

	Calls []string
}

func NewFakePort() *FakePort {
	return &FakePort{Relation: "new_topic", InsightMessage: "결과를 확인해주세요."}
}

func (f *FakePort) ClassifyRelation(ctx context.Context, req RelationRequest) (string, error) {
	f.Calls = append(f.Calls, "classify_relation")
	if f.RelationErr != nil {
		return "", f.RelationErr
	}
	return f.Relation, nil
}

func (f *FakePort) ExtractIntent(ctx context.Context, question string) (IntentFallbackResult, error) {
	f.Calls = append(f.Calls, "extract_intent")
	if f.IntentErr != nil {
		return IntentFallbackResult{}, f.IntentErr
	}
	return f.IntentResult, nil
}

func (f *FakePort) Insight(ctx context.Context, prompt string) (string, error) {
	f.Calls = append(f.Calls, "insight")
	if f.InsightErr != nil {
		return "", f.InsightErr
	}
	return f.InsightMessage, nil
}
