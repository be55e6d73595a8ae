package relation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"nugget/internal/domain"
	"nugget/internal/llm"
)

func TestClassify_FallsBackOnError(t *testing.T) {
	fake := llm.NewFakePort()
	fake.RelationErr = errors.New("boom")
	c := New(fake)

	got := c.Classify(context.Background(), "q", &domain.ConversationState{Metrics: []string{"activeUsers"}}, nil, nil)
	assert.Equal(t, domain.RelationNewTopic, got)
}

func TestClassify_FallsBackOnUnknownValue(t *testing.T) {
	fake := llm.NewFakePort()
	fake.Relation = "something_else"
	c := New(fake)

	got := c.Classify(context.Background(), "q", &domain.ConversationState{Metrics: []string{"activeUsers"}}, nil, nil)
	assert.Equal(t, domain.RelationNewTopic, got)
}

func TestClassify_NoLastStateIsNewTopic(t *testing.T) {
	fake := llm.NewFakePort()
	fake.Relation = "refine"
	c := New(fake)

	got := c.Classify(context.Background(), "q", nil, nil, nil)
	assert.Equal(t, domain.RelationNewTopic, got)
}

func TestClassify_HonorsValidRelation(t *testing.T) {
	fake := llm.NewFakePort()
	fake.Relation = "refine"
	c := New(fake)

	got := c.Classify(context.Background(), "q", &domain.ConversationState{Metrics: []string{"activeUsers"}}, nil, nil)
	assert.Equal(t, domain.RelationRefine, got)
}
