// Package progress is a websocket broadcaster for turn-lifecycle
// events: a live view of extraction/plan/execution/response progress
// for a conversation, purely observational and never on the decision
// path.
package progress

import "time"

const (
	EventExtractionDone = "extraction.done"
	EventPlanBuilt      = "plan.built"
	EventBlockExecuted  = "block.executed"
	EventResponseReady  = "response.ready"
)

// Event is one server -> client progress message.
type Event struct {
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`

	Intent     string `json:"intent,omitempty"`
	BlockCount int    `json:"block_count,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	RowCount   int    `json:"row_count,omitempty"`
	Status     string `json:"status,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}
