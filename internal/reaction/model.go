package reaction

import "time"

// Reaction is one user's reaction row on a message. Value is the emoji
// itself or a GIF/sticker URL depending on Type.
type Reaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Type      string    `json:"reaction_type"`
	Value     string    `json:"reaction_value"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	TypeEmoji = "emoji"
	TypeGif   = "gif"
)

// Group is the aggregated per-value view a surface renders: count, the
// contributing user names, and whether the viewer is among them.
type Group struct {
	Value          string   `json:"value"`
	Type           string   `json:"type"`
	Count          int      `json:"count"`
	Users          []string `json:"users"`
	HasCurrentUser bool     `json:"has_current_user"`
}

// Variant selects which reaction table an operation targets. Both tables
// follow the same uniqueness discipline.
type Variant string

const (
	VariantTeam    Variant = "team"
	VariantPrivate Variant = "private"
)

func (v Variant) table() string {
	if v == VariantPrivate {
		return "private_message_reactions"
	}
	return "message_reactions"
}

// GroupAll folds raw rows into per-value groups in first-seen order.
// Recomputed from scratch on every change-feed tick for the message.
func GroupAll(rows []Reaction, viewerID string) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, r := range rows {
		i, ok := index[r.Value]
		if !ok {
			i = len(groups)
			index[r.Value] = i
			groups = append(groups, Group{Value: r.Value, Type: r.Type})
		}
		groups[i].Count++
		groups[i].Users = append(groups[i].Users, r.UserName)
		if r.UserID == viewerID {
			groups[i].HasCurrentUser = true
		}
	}
	return groups
}
