package progress

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nugget/internal/infrastructure/authstub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades an authenticated HTTP request to a websocket
// subscription on one conversation's progress events.
type Handler struct {
	hub  *Hub
	auth *authstub.Validator
	log  zerolog.Logger
}

func NewHandler(hub *Hub, auth *authstub.Validator, log zerolog.Logger) *Handler {
	return &Handler{hub: hub, auth: auth, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	if claims := authstub.FromContext(r.Context()); claims != nil && claims.ConversationID != "" {
		conversationID = claims.ConversationID
	}
	if conversationID == "" {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("progress: websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, conversationID)
	go client.Run()
}
