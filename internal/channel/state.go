// Package channel maintains the ordered, deduplicated, capped message list
// for one conversation scope. Both the sender's optimistic append and the
// change-feed echo of the same insert flow through here, so every mutating
// path checks "does this id already exist" first. That check is the
// load-bearing invariant of the whole chat subsystem.
package channel

import (
	"sort"
	"sync"

	"teamchat/internal/message"
)

// State is one conversation's local view. Switching scopes bumps an epoch;
// fetch results and feed events stamped with a stale epoch are discarded,
// which is what prevents an in-flight fetch from the previous conversation
// from overwriting the new one.
type State struct {
	mu    sync.Mutex
	scope string
	epoch uint64
	limit int

	msgs []message.Message
	byID map[string]int // id -> index in msgs
}

func NewState() *State {
	return &State{
		limit: message.HistoryLimit,
		byID:  make(map[string]int),
	}
}

// Bind switches the state to a new scope, clearing the list and returning
// the new epoch. Callers stamp subsequent Load/Upsert calls with it.
func (s *State) Bind(scope string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scope = scope
	s.epoch++
	s.msgs = nil
	s.byID = make(map[string]int)
	return s.epoch
}

func (s *State) Scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

func (s *State) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Load replaces the list with a fetch result. A stale epoch means the scope
// changed while the fetch was in flight; the result is dropped and the
// current list left untouched. Rows are re-sorted ascending here and only
// here; feed arrival order is accepted afterwards.
func (s *State) Load(epoch uint64, msgs []message.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}

	sorted := make([]message.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	s.msgs = s.msgs[:0]
	s.byID = make(map[string]int, len(sorted))
	for _, m := range sorted {
		if _, dup := s.byID[m.ID]; dup {
			continue
		}
		s.byID[m.ID] = len(s.msgs)
		s.msgs = append(s.msgs, m)
	}
	s.trim()
	return true
}

// Upsert applies an optimistic append or a feed event. If the id is already
// present the row is replaced in place (read-flag updates arrive this way)
// and Upsert reports false; a genuinely new row is appended and reports
// true. Callers use the report to decide notification side effects.
func (s *State) Upsert(epoch uint64, m message.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}

	if i, ok := s.byID[m.ID]; ok {
		s.msgs[i] = m
		return false
	}

	s.byID[m.ID] = len(s.msgs)
	s.msgs = append(s.msgs, m)
	s.trim()
	return true
}

// Remove drops the row with the given id, if present.
func (s *State) Remove(epoch uint64, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
	delete(s.byID, id)
	for j := i; j < len(s.msgs); j++ {
		s.byID[s.msgs[j].ID] = j
	}
	return true
}

// Clear empties the list without changing scope or epoch. Used when the
// admin wipes the conversation.
func (s *State) Clear(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}
	s.msgs = nil
	s.byID = make(map[string]int)
	return true
}

// Get returns the row with the given id, if present.
func (s *State) Get(id string) (message.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return message.Message{}, false
	}
	return s.msgs[i], true
}

// MarkRead flips IsRead on every cached row from senderID to receiverID,
// mirroring a read receipt without a refetch. Returns how many flipped.
func (s *State) MarkRead(epoch uint64, senderID, receiverID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return 0
	}
	n := 0
	for i := range s.msgs {
		m := &s.msgs[i]
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n
}

// Messages returns a copy of the current list, oldest first.
func (s *State) Messages() []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]message.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// trim evicts oldest entries beyond the cap. Caller holds mu.
func (s *State) trim() {
	if len(s.msgs) <= s.limit {
		return
	}
	drop := len(s.msgs) - s.limit
	for _, m := range s.msgs[:drop] {
		delete(s.byID, m.ID)
	}
	s.msgs = s.msgs[drop:]
	for j := range s.msgs {
		s.byID[s.msgs[j].ID] = j
	}
}
