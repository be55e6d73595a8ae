package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nugget/internal/domain"
)

func TestMemoryStore_SaveAndLoadLastState(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	state := &domain.ConversationState{Metrics: []string{"purchaseRevenue"}, StartDate: "2026-07-01", EndDate: "2026-07-31"}
	require.NoError(t, s.SaveLastState(ctx, "conv-1", state))

	loaded, err := s.LoadLastState(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, state.Metrics, loaded.Metrics)
}

func TestMemoryStore_LoadMissingStateReturnsNil(t *testing.T) {
	s := NewMemoryStore()
	loaded, err := s.LoadLastState(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStore_EventsAreAppendedPerConversation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveEvent(ctx, InteractionEvent{ConversationID: "conv-1", Question: "총 매출"}))
	require.NoError(t, s.SaveEvent(ctx, InteractionEvent{ConversationID: "conv-1", Question: "추이는?"}))
	require.NoError(t, s.SaveEvent(ctx, InteractionEvent{ConversationID: "conv-2", Question: "다른 대화"}))

	events, err := s.GetEvents(ctx, "conv-1", 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestMemoryStore_ConversationContextRoundTrips(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	mem := &domain.EntityMemory{Dimension: "itemName", Value: "후원상품A"}
	require.NoError(t, s.SaveConversationContext(ctx, "conv-1", mem))

	loaded, err := s.LoadConversationContext(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, mem, loaded)
}
