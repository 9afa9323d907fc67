package chat

import (
	"context"
	"log"

	"teamchat/internal/metrics"
)

// Hub owns the set of connected clients. All membership changes flow
// through its run loop, so no lock guards the client map.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Run processes registrations until ctx is cancelled, then tears every
// remaining session down. Unregister may fire more than once per client
// (read pump teardown and slow-client drops race); the map check keeps it
// idempotent.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			metrics.OpenSessions.Inc()

		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				break
			}
			delete(h.clients, c)
			metrics.OpenSessions.Dec()
			c.session.Stop()
			c.closeSend()

		case <-ctx.Done():
			log.Printf("[Chat] hub shutting down, closing %d sessions", len(h.clients))
			for c := range h.clients {
				c.session.Stop()
				c.closeSend()
				delete(h.clients, c)
			}
			metrics.OpenSessions.Set(0)

			// Read pumps still unwind after shutdown and their deferred
			// unregisters must not block, so keep draining until the
			// process exits.
			for {
				select {
				case c := <-h.register:
					c.session.Stop()
					c.closeSend()
				case c := <-h.unregister:
					c.session.Stop()
					c.closeSend()
				}
			}
		}
	}
}
