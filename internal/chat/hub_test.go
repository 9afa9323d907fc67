package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{ctx: ctx, cancel: cancel}
}

func TestEmitAfterSlowClientDropDoesNotPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	// No write pump draining: the send buffer fills and the client is
	// dropped mid-stream, exactly like a stalled websocket peer.
	c := newClient(h, nil)
	c.session = newTestSession(t)
	h.Register(c)

	for i := 0; i < cap(c.send)+50; i++ {
		c.Emit("message", map[string]string{"n": "x"})
	}

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.closed
	}, time.Second, 10*time.Millisecond, "overflowing client must end up dropped")

	// Emits from pumps still draining buffered feed events are no-ops.
	c.Emit("message", map[string]string{"n": "late"})
	assert.Error(t, c.session.ctx.Err(), "dropped client's session must be stopped")
}

func TestRepeatedUnregisterIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	c := newClient(h, nil)
	c.session = newTestSession(t)
	h.Register(c)

	// Read pump teardown and a slow-client drop can both fire.
	h.Unregister(c)
	h.Unregister(c)

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	assert.True(t, closed)
}

func TestShutdownDrainsLateUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)

	c := newClient(h, nil)
	c.session = newTestSession(t)
	h.Register(c)

	cancel()

	// The read pump's deferred unregister lands after the hub swept its
	// clients; it must return instead of blocking the goroutine forever.
	done := make(chan struct{})
	go func() {
		h.Unregister(c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Unregister blocked after hub shutdown")
	}

	// A connection that raced shutdown still gets torn down.
	late := newClient(h, nil)
	late.session = newTestSession(t)
	go h.Register(late)
	require.Eventually(t, func() bool {
		return late.session.ctx.Err() != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMarkReadRequiresActiveConversation(t *testing.T) {
	c := newClient(nil, nil)
	s := newTestSession(t)
	s.userID = "u1"
	s.client = c

	// No join yet, so ownerID is empty; the command must be rejected
	// before anything touches the store.
	s.markRead("sender")

	select {
	case payload := <-c.send:
		var ev WSEvent
		require.NoError(t, json.Unmarshal(payload, &ev))
		assert.Equal(t, "error", ev.Type)
	default:
		t.Fatal("expected an error event")
	}
}
