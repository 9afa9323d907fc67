// Package scope defines the conversation keys the change feed and channel
// state are addressed by. It sits below every feature package so both the
// publishers (message, member) and the consumers (chat sessions) share one
// key scheme without depending on each other.
package scope

import "strings"

// Team is the team-wide conversation under one owner.
func Team(ownerID string) string {
	return "team:" + ownerID
}

// DM is the 1:1 thread key. Both members must resolve the same key, so the
// pair is sorted.
func DM(ownerID, a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return "dm:" + ownerID + ":" + a + ":" + b
}

// User is the per-user notification channel. Private-message events are
// published here as well as on their DM scope so the receiver's unread
// counters update even when that thread is not the active scope.
func User(userID string) string {
	return "user:" + userID
}

func IsDM(key string) bool {
	return strings.HasPrefix(key, "dm:")
}
