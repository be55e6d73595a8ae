// Package conversation is the Conversation Store (component J): the
// per-conversation persistence for last state, last result, entity
// context, and the event log used for offline quality review.
package conversation

import (
	"context"
	"time"

	"nugget/internal/domain"
)

// InteractionEvent is one logged turn, kept for offline regression
// review independent of the live ConversationState.
type InteractionEvent struct {
	ConversationID string
	Question       string
	Intent         domain.Intent
	Source         string
	Status         domain.ResponseStatus
	Timestamp      time.Time
}

// Store is the pluggable conversation persistence port. Every write is
// serialized per conversation ID so a turn can never interleave with
// another write for the same conversation.
type Store interface {
	LoadLastState(ctx context.Context, conversationID string) (*domain.ConversationState, error)
	SaveLastState(ctx context.Context, conversationID string, state *domain.ConversationState) error

	LoadLastResult(ctx context.Context, conversationID string) ([]domain.BlockResult, error)
	SaveLastResult(ctx context.Context, conversationID string, blocks []domain.BlockResult) error

	LoadConversationContext(ctx context.Context, conversationID string) (*domain.EntityMemory, error)
	SaveConversationContext(ctx context.Context, conversationID string, mem *domain.EntityMemory) error

	GetEvents(ctx context.Context, conversationID string, limit int) ([]InteractionEvent, error)
	SaveEvent(ctx context.Context, ev InteractionEvent) error
}
