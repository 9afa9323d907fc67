package presence

import "time"

// Status is the published presence value. Derived values come out of the
// tracker's activity state machine; manual values are user overrides that
// win over whatever the tracker derives while they are set. Keeping the two
// families as one enumerated type (instead of free-text on the row) is what
// stops presence computation and overrides from colliding.
type Status string

const (
	// Derived by the tracker.
	Online  Status = "online"
	Away    Status = "away"
	Offline Status = "offline"

	// Manual overrides.
	Busy          Status = "busy"
	DoNotDisturb  Status = "do_not_disturb"
	BeRightBack   Status = "be_right_back"
	AppearOffline Status = "appear_offline"
)

// Manual reports whether s is a user override rather than a derived value.
func (s Status) Manual() bool {
	switch s {
	case Busy, DoNotDisturb, BeRightBack, AppearOffline:
		return true
	}
	return false
}

// Valid reports whether s is a known status value at all.
func (s Status) Valid() bool {
	switch s {
	case Online, Away, Offline:
		return true
	}
	return s.Manual()
}

// FreshnessWindow is how recent last_seen must be for a derived status to
// still be trusted when reading someone else's row.
const FreshnessWindow = 2 * time.Minute

// Effective resolves the presence to display for a roster row: a manual
// override is taken at face value; a derived status decays to offline once
// last_seen goes stale (the writer stopped heartbeating).
func Effective(published Status, lastSeen time.Time, now time.Time) Status {
	if published.Manual() {
		return published
	}
	if now.Sub(lastSeen) >= FreshnessWindow {
		return Offline
	}
	if published == Online || published == Away {
		return published
	}
	return Offline
}
