package orchestrator

import (
	"context"

	"github.com/rs/zerolog/log"

	"nugget/internal/domain"
	"nugget/internal/fileengine"
	"nugget/internal/statepolicy"
)

// FileTurnRequest is one incoming question against an uploaded table.
type FileTurnRequest struct {
	ConversationID string
	Question       string
	Table          *fileengine.Table
}

// HandleFile runs one file-engine turn, reusing the Orchestrator's store
// and observers under the "file" source key so the analytics route's
// conversation state never mixes with this one (the source-change guard:
// switching source between turns never carries state across).
func (o *Orchestrator) HandleFile(ctx context.Context, req FileTurnRequest) fileengine.Result {
	key := stateKey(req.ConversationID, statepolicy.SourceFile)

	var lastIntent *fileengine.Intent
	if req.ConversationID != "" {
		if state, err := o.store.LoadLastState(ctx, key); err == nil && state != nil {
			li := fileengine.Intent{Type: fileengine.IntentType(state.Intent)}
			lastIntent = &li
		}
	}

	result, newIntent := o.engine.Process(ctx, req.Question, req.Table, lastIntent)

	if req.ConversationID != "" && newIntent != nil {
		newState := &domain.ConversationState{Intent: domain.Intent(newIntent.Type)}
		if err := o.store.SaveLastState(ctx, key, newState); err != nil {
			log.Debug().Err(err).Msg("orchestrator: failed to save file-route state")
		}
	}

	return result
}
