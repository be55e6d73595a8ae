package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog/log"

	pipelineerrors "nugget/internal/domain/errors"
)

// OpenAIPort is the real LLM port, backed by github.com/sashabaranov/go-openai.
type OpenAIPort struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIPort(apiKey, model string, timeout time.Duration) *OpenAIPort {
	return &OpenAIPort{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (p *OpenAIPort) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Debug().Err(err).Msg("llm: chat completion failed")
		return "", pipelineerrors.New(pipelineerrors.RelationFallback, "llm", "", "openai call failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", pipelineerrors.New(pipelineerrors.RelationFallback, "llm", "", "openai returned no choices", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *OpenAIPort) ClassifyRelation(ctx context.Context, req RelationRequest) (string, error) {
	prompt := buildRelationPrompt(req)
	content, err := p.complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Relation string `json:"relation"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", pipelineerrors.New(pipelineerrors.RelationFallback, "llm", "", "malformed relation response", err)
	}
	return parsed.Relation, nil
}

func buildRelationPrompt(req RelationRequest) string {
	var b strings.Builder
	b.WriteString("You classify the relation of a follow-up question to the prior conversation state.\n")
	b.WriteString("Respond ONLY with JSON: {\"relation\": one of refine|new_topic|metric_switch|dimension_switch}\n")
	b.WriteString("question: " + req.Question + "\n")
	b.WriteString("last_metrics: " + strings.Join(req.LastMetrics, ",") + "\n")
	b.WriteString("last_dims: " + strings.Join(req.LastDims, ",") + "\n")
	b.WriteString("delta_metrics: " + strings.Join(req.DeltaMetrics, ",") + "\n")
	b.WriteString("delta_dims: " + strings.Join(req.DeltaDims, ",") + "\n")
	return b.String()
}

func (p *OpenAIPort) ExtractIntent(ctx context.Context, question string) (IntentFallbackResult, error) {
	prompt := "Extract {intent, metrics[], dimensions[], limit?} as JSON from this Korean analytics question: " + question
	content, err := p.complete(ctx, prompt)
	if err != nil {
		return IntentFallbackResult{}, err
	}
	var parsed IntentFallbackResult
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return IntentFallbackResult{}, pipelineerrors.New(pipelineerrors.InsightFallback, "llm", "", "malformed intent fallback response", err)
	}
	return parsed, nil
}

func (p *OpenAIPort) Insight(ctx context.Context, prompt string) (string, error) {
	return p.complete(ctx, prompt)
}
