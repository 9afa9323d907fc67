package chat

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // attachments travel by URL, never inline
)

// Client is the middleman between one websocket connection and its session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *Session

	// mu guards send against closeSend; once closed is set every further
	// Emit is a no-op, so a dropped client can never panic a feed pump.
	mu     sync.Mutex
	closed bool

	// Buffered channel of outbound envelopes.
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Emit queues an event for the peer. A session that cannot drain its buffer
// is dropped rather than allowed to stall the feed pumps behind it.
func (c *Client) Emit(eventType string, data any) {
	ev, err := newEvent(eventType, data)
	if err != nil {
		log.Printf("[Chat] marshal %s event: %v", eventType, err)
		return
	}
	payload, _ := json.Marshal(ev)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- payload:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		c.hub.Unregister(c)
	}
}

// closeSend shuts the outbound channel exactly once. Only the hub calls
// this; Emit observes the flag instead of racing the close.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump pumps commands from the websocket into the session.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Chat] read error: %v", err)
			}
			break
		}

		var ev WSEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.Emit("error", errorPayload{Message: "malformed event"})
			continue
		}
		c.session.HandleCommand(&ev)
	}
}

// writePump pumps queued envelopes to the websocket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)

			// Drain whatever queued up behind this write in one frame batch.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
