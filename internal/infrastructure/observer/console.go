package observer

import (
	"time"

	"github.com/rs/zerolog"
)

// ConsoleObserver logs every lifecycle event through zerolog. The server
// registers it alongside the progress hub, so events are logged whether
// or not a websocket client is connected.
type ConsoleObserver struct {
	log zerolog.Logger
}

func NewConsoleObserver(log zerolog.Logger) *ConsoleObserver {
	return &ConsoleObserver{log: log}
}

func (c *ConsoleObserver) OnExtractionDone(conversationID, intent string, duration time.Duration) {
	c.log.Debug().Str("conversation_id", conversationID).Str("intent", intent).Dur("duration", duration).Msg("extraction done")
}

func (c *ConsoleObserver) OnPlanBuilt(conversationID string, blockCount int, duration time.Duration) {
	c.log.Debug().Str("conversation_id", conversationID).Int("blocks", blockCount).Dur("duration", duration).Msg("plan built")
}

func (c *ConsoleObserver) OnBlockExecuted(conversationID, blockID string, rowCount int, err error) {
	ev := c.log.Debug().Str("conversation_id", conversationID).Str("block_id", blockID).Int("rows", rowCount)
	if err != nil {
		ev.Err(err).Msg("block failed")
		return
	}
	ev.Msg("block executed")
}

func (c *ConsoleObserver) OnResponseReady(conversationID, status string, duration time.Duration) {
	c.log.Info().Str("conversation_id", conversationID).Str("status", status).Dur("duration", duration).Msg("response ready")
}
