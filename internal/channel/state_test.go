package channel

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamchat/internal/message"
	"teamchat/internal/scope"
)

func msg(id string, at time.Time) message.Message {
	return message.Message{ID: id, Body: "m-" + id, CreatedAt: at}
}

func TestUpsertDedupesOptimisticAndEcho(t *testing.T) {
	s := NewState()
	epoch := s.Bind(scope.Team("owner"))

	m := msg("a", time.Now())
	assert.True(t, s.Upsert(epoch, m), "optimistic append is new")
	assert.False(t, s.Upsert(epoch, m), "feed echo of the same id must not append")
	assert.Equal(t, 1, s.Len())

	// Echo-first then optimistic is the other interleaving.
	m2 := msg("b", time.Now())
	assert.True(t, s.Upsert(epoch, m2))
	assert.False(t, s.Upsert(epoch, m2))
	assert.Equal(t, 2, s.Len())
}

func TestStaleEpochFetchIsDiscarded(t *testing.T) {
	s := NewState()
	oldEpoch := s.Bind(scope.DM("owner", "u1", "u2"))

	// Scope switch happens while the fetch for the old scope is in flight.
	newEpoch := s.Bind(scope.DM("owner", "u1", "u3"))
	require.NotEqual(t, oldEpoch, newEpoch)

	landed := s.Load(oldEpoch, []message.Message{msg("stale", time.Now())})
	assert.False(t, landed, "stale-scope fetch result must be ignored")
	assert.Equal(t, 0, s.Len())

	assert.True(t, s.Load(newEpoch, []message.Message{msg("fresh", time.Now())}))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "fresh", s.Messages()[0].ID)
}

func TestStaleEpochEventIsDiscarded(t *testing.T) {
	s := NewState()
	oldEpoch := s.Bind(scope.Team("owner"))
	s.Bind(scope.Team("other-owner"))

	assert.False(t, s.Upsert(oldEpoch, msg("x", time.Now())))
	assert.Equal(t, 0, s.Len(), "event from scope A must never land in scope B's list")
}

func TestLoadSortsAscendingAndDedupes(t *testing.T) {
	s := NewState()
	epoch := s.Bind(scope.Team("owner"))

	base := time.Now()
	rows := []message.Message{
		msg("c", base.Add(2*time.Second)),
		msg("a", base),
		msg("b", base.Add(time.Second)),
		msg("a", base), // duplicate id in the page
	}
	require.True(t, s.Load(epoch, rows))

	got := s.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestUpsertReplacesInPlaceOnUpdate(t *testing.T) {
	s := NewState()
	epoch := s.Bind(scope.DM("owner", "u1", "u2"))

	m := msg("a", time.Now())
	require.True(t, s.Upsert(epoch, m))

	m.IsRead = true
	assert.False(t, s.Upsert(epoch, m), "read-flag update replaces, not appends")
	got := s.Messages()
	require.Len(t, got, 1)
	assert.True(t, got[0].IsRead)
}

func TestCapEvictsOldest(t *testing.T) {
	s := NewState()
	epoch := s.Bind(scope.Team("owner"))

	base := time.Now()
	for i := 0; i < message.HistoryLimit+10; i++ {
		s.Upsert(epoch, msg(fmt.Sprintf("m%03d", i), base.Add(time.Duration(i)*time.Millisecond)))
	}

	got := s.Messages()
	require.Len(t, got, message.HistoryLimit)
	assert.Equal(t, "m010", got[0].ID, "oldest entries are evicted first")

	// Evicted ids may be appended again (cap is a window, not a tombstone).
	assert.True(t, s.Upsert(epoch, msg("m000", base)))
}

func TestRemoveAndClear(t *testing.T) {
	s := NewState()
	epoch := s.Bind(scope.Team("owner"))

	base := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		s.Upsert(epoch, msg(id, base))
	}

	assert.True(t, s.Remove(epoch, "b"))
	assert.False(t, s.Remove(epoch, "b"))
	got := s.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	// Index map must stay consistent after the shift.
	assert.False(t, s.Upsert(epoch, got[1]))

	assert.True(t, s.Clear(epoch))
	assert.Equal(t, 0, s.Len())
}
