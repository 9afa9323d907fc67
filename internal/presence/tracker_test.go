package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishCall struct {
	status   Status
	lastSeen time.Time
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
}

func (f *fakePublisher) PublishPresence(_ context.Context, _ string, status Status, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publishCall{status, lastSeen})
	return nil
}

func (f *fakePublisher) statuses() []Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Status, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.status
	}
	return out
}

func TestIdleTransitionHappensExactlyOnce(t *testing.T) {
	pub := &fakePublisher{}
	tr := NewTracker("u1", pub)
	ctx := context.Background()

	start := time.Now()
	tr.RecordActivityAt(ctx, start)

	// Heartbeats inside the idle window keep republishing online.
	tr.Heartbeat(ctx, start.Add(30*time.Second))
	tr.Heartbeat(ctx, start.Add(60*time.Second))
	assert.Equal(t, Online, tr.Status())

	// Crossing the idle threshold flips to away once; further heartbeats
	// stay quiet.
	tr.Heartbeat(ctx, start.Add(IdleAfter))
	tr.Heartbeat(ctx, start.Add(IdleAfter+time.Minute))
	tr.Heartbeat(ctx, start.Add(IdleAfter+2*time.Minute))
	assert.Equal(t, Away, tr.Status())

	var awayCount int
	for _, s := range pub.statuses() {
		if s == Away {
			awayCount++
		}
	}
	assert.Equal(t, 1, awayCount, "online -> away must publish exactly once")
}

func TestActivityWakesAwaySession(t *testing.T) {
	pub := &fakePublisher{}
	tr := NewTracker("u1", pub)
	ctx := context.Background()

	start := time.Now()
	tr.RecordActivityAt(ctx, start)
	tr.Heartbeat(ctx, start.Add(IdleAfter))
	require.Equal(t, Away, tr.Status())

	// The throttle window from the first RecordActivityAt has passed in
	// simulated terms but not wall-clock terms; wait it out.
	time.Sleep(1100 * time.Millisecond)
	tr.RecordActivityAt(ctx, start.Add(IdleAfter+time.Second))
	assert.Equal(t, Online, tr.Status())

	statuses := pub.statuses()
	require.NotEmpty(t, statuses)
	assert.Equal(t, Online, statuses[len(statuses)-1])
}

func TestActivityIsThrottled(t *testing.T) {
	pub := &fakePublisher{}
	tr := NewTracker("u1", pub)
	ctx := context.Background()

	start := time.Now()
	tr.Heartbeat(ctx, start.Add(IdleAfter)) // away
	require.Equal(t, Away, tr.Status())

	// Burst of events: only the first inside the 1/s window lands, so only
	// one wake publish happens.
	for i := 0; i < 50; i++ {
		tr.RecordActivityAt(ctx, start.Add(IdleAfter+time.Duration(i)*time.Millisecond))
	}
	var wakes int
	for _, s := range pub.statuses() {
		if s == Online {
			wakes++
		}
	}
	assert.Equal(t, 1, wakes)
}

func TestManualOverrideWinsAndClears(t *testing.T) {
	pub := &fakePublisher{}
	tr := NewTracker("u1", pub)
	ctx := context.Background()

	tr.SetManual(ctx, DoNotDisturb)
	assert.Equal(t, DoNotDisturb, tr.Status())

	// Derived transitions keep running underneath but do not surface.
	tr.Heartbeat(ctx, time.Now().Add(IdleAfter))
	assert.Equal(t, DoNotDisturb, tr.Status())

	tr.SetManual(ctx, "")
	assert.Equal(t, Away, tr.Status())
}

func TestStopPublishesOfflineOnce(t *testing.T) {
	pub := &fakePublisher{}
	tr := NewTracker("u1", pub)
	ctx := context.Background()

	tr.Stop(ctx)
	tr.Stop(ctx)
	tr.Heartbeat(ctx, time.Now())

	statuses := pub.statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, Offline, statuses[0])
}

func TestEffectiveDecaysToOffline(t *testing.T) {
	now := time.Now()

	assert.Equal(t, Online, Effective(Online, now.Add(-time.Minute), now))
	assert.Equal(t, Away, Effective(Away, now.Add(-time.Minute), now))
	assert.Equal(t, Offline, Effective(Online, now.Add(-FreshnessWindow), now))

	// Manual overrides do not decay with last_seen.
	assert.Equal(t, Busy, Effective(Busy, now.Add(-time.Hour), now))
	assert.Equal(t, AppearOffline, Effective(AppearOffline, now, now))

	// Unknown free-text values read as offline instead of leaking through.
	assert.Equal(t, Offline, Effective(Status("gone fishing"), now, now))
}
