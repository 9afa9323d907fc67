package member

import "time"

// Member is one row of a team roster. A freshly invited member has no
// UserID yet (status pending); it is linked when that email first
// authenticates. IsChatBlocked is an admin flag independent of status:
// a blocked member still reads the chat but cannot send.
type Member struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	UserID        *string   `json:"user_id,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Position      string    `json:"position,omitempty"`
	Status        string    `json:"status"`
	Presence      string    `json:"presence"`
	LastSeen      time.Time `json:"last_seen"`
	ChatNickname  *string   `json:"chat_nickname,omitempty"`
	IsChatBlocked bool      `json:"is_chat_blocked"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	StatusPending = "pending"
	StatusActive  = "active"
)

type InviteRequest struct {
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Position string `json:"position"`
}
