// Package unread keeps the per-sender unread badge counts for one user.
// It is a derived view over private-message feed events; the is_read column
// in the row store stays authoritative and Seed resyncs from it.
package unread

import "sync"

type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Seed replaces the whole view with the store's aggregate, typically at
// session start.
func (c *Counter) Seed(counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts = make(map[string]int, len(counts))
	for sender, n := range counts {
		if n > 0 {
			c.counts[sender] = n
		}
	}
}

// Incoming bumps the sender's count for a newly arrived unread message and
// returns the new value.
func (c *Counter) Incoming(senderID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[senderID]++
	return c.counts[senderID]
}

// ClearSender zeroes exactly one sender's count, as mark-read does. Other
// senders are untouched.
func (c *Counter) ClearSender(senderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, senderID)
}

// Counts returns a copy of the current view.
func (c *Counter) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.counts))
	for sender, n := range c.counts {
		out[sender] = n
	}
	return out
}

// Total is the badge sum across all senders.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}
