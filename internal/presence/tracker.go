package presence

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// IdleAfter is how long without qualifying activity before an online
	// session turns away.
	IdleAfter = 5 * time.Minute

	// HeartbeatEvery re-publishes online while the session is active, so
	// the written last_seen never goes stale by more than this.
	HeartbeatEvery = 30 * time.Second
)

// Publisher writes a presence value out to the row store.
type Publisher interface {
	PublishPresence(ctx context.Context, userID string, status Status, lastSeen time.Time) error
}

// Tracker classifies one session's activity and publishes the result.
// Online -> Away after IdleAfter without activity; Away -> Online
// immediately on activity; -> Offline on Stop. A manual override, when set,
// is what gets published regardless of the derived state. Multiple sessions
// per user run independent trackers; last-writer-wins on the row is fine at
// heartbeat granularity.
type Tracker struct {
	userID  string
	pub     Publisher
	limiter *rate.Limiter

	mu           sync.Mutex
	state        Status // Online or Away
	manual       Status // empty when no override is set
	lastActivity time.Time
	stopped      bool
}

func NewTracker(userID string, pub Publisher) *Tracker {
	return &Tracker{
		userID: userID,
		pub:    pub,
		// Activity events fan in from every listened input type; one
		// bookkeeping update per second is plenty.
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		state:        Online,
		lastActivity: time.Now(),
	}
}

// Run drives the tracker with real time until ctx is done, then publishes
// offline. Call in its own goroutine.
func (t *Tracker) Run(ctx context.Context) {
	t.publish(ctx, time.Now())

	ticker := time.NewTicker(HeartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Stop(context.Background())
			return
		case now := <-ticker.C:
			t.Heartbeat(ctx, now)
		}
	}
}

// RecordActivity notes a qualifying input event. Throttled to at most one
// bookkeeping update per second; an Away session flips back Online
// immediately and republishes.
func (t *Tracker) RecordActivity(ctx context.Context) {
	t.RecordActivityAt(ctx, time.Now())
}

func (t *Tracker) RecordActivityAt(ctx context.Context, now time.Time) {
	if !t.limiter.Allow() {
		return
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.lastActivity = now
	wake := t.state == Away
	if wake {
		t.state = Online
	}
	t.mu.Unlock()

	if wake {
		t.publish(ctx, now)
	}
}

// Heartbeat advances the idle state machine. While online it republishes so
// last_seen stays fresh; the online -> away transition publishes exactly
// once and then goes quiet until activity resumes.
func (t *Tracker) Heartbeat(ctx context.Context, now time.Time) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}

	republish := false
	if t.state == Online {
		if now.Sub(t.lastActivity) >= IdleAfter {
			t.state = Away
			republish = true
		} else {
			republish = true
		}
	}
	t.mu.Unlock()

	if republish {
		t.publish(ctx, now)
	}
}

// SetManual sets or clears (empty status) the manual override and publishes
// the new effective value right away.
func (t *Tracker) SetManual(ctx context.Context, status Status) {
	t.mu.Lock()
	if status == "" || status.Manual() {
		t.manual = status
	}
	t.mu.Unlock()
	t.publish(ctx, time.Now())
}

// Status returns the value that would be published now.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.effectiveLocked()
}

// Stop publishes offline and freezes the tracker. Idempotent.
func (t *Tracker) Stop(ctx context.Context) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	if err := t.pub.PublishPresence(ctx, t.userID, Offline, time.Now()); err != nil {
		log.Printf("[Presence] offline publish for %s failed: %v", t.userID, err)
	}
}

func (t *Tracker) effectiveLocked() Status {
	if t.manual != "" {
		return t.manual
	}
	return t.state
}

func (t *Tracker) publish(ctx context.Context, now time.Time) {
	t.mu.Lock()
	status := t.effectiveLocked()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}

	// Background sync: failures are logged and the next heartbeat retries.
	if err := t.pub.PublishPresence(ctx, t.userID, status, now); err != nil {
		log.Printf("[Presence] publish %s for %s failed: %v", status, t.userID, err)
	}
}
