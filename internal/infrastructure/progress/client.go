package progress

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Client is one websocket connection subscribed to a single
// conversation's progress events.
type Client struct {
	id             string
	hub            *Hub
	conn           *websocket.Conn
	send           chan *Event
	conversationID string
}

func NewClient(hub *Hub, conn *websocket.Conn, conversationID string) *Client {
	return &Client{
		id:             uuid.New().String(),
		hub:            hub,
		conn:           conn,
		send:           make(chan *Event, sendBufferSize),
		conversationID: conversationID,
	}
}

// Run registers the client and pumps queued events to the socket until
// the connection closes. Callers should invoke this in its own
// goroutine after the HTTP upgrade.
func (c *Client) Run() {
	c.hub.register <- c
	defer func() { c.hub.unregister <- c }()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
