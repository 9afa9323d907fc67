package presence

import (
	"context"
	"log"
	"time"
)

// ProfileWriter and MembershipWriter are the two row targets a presence
// publish fans out to. Declared here so presence depends on neither feature
// package.
type ProfileWriter interface {
	UpdatePresence(ctx context.Context, id, status string, lastSeen time.Time) error
}

type MembershipWriter interface {
	UpdatePresence(ctx context.Context, userID, status string, lastSeen time.Time) error
}

// Recorder writes presence to the user's profile row and to every
// team-membership row they hold. Membership failures are swallowed: a user
// who owns a team but belongs to none simply has no rows to touch.
type Recorder struct {
	profiles    ProfileWriter
	memberships MembershipWriter
}

func NewRecorder(profiles ProfileWriter, memberships MembershipWriter) *Recorder {
	return &Recorder{profiles: profiles, memberships: memberships}
}

func (r *Recorder) PublishPresence(ctx context.Context, userID string, status Status, lastSeen time.Time) error {
	if err := r.profiles.UpdatePresence(ctx, userID, string(status), lastSeen); err != nil {
		return err
	}
	if err := r.memberships.UpdatePresence(ctx, userID, string(status), lastSeen); err != nil {
		log.Printf("[Presence] membership rows for %s not updated: %v", userID, err)
	}
	return nil
}
