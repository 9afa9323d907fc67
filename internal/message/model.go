package message

import "time"

// Message is one chat message row. Team messages address the whole roster
// under an owner; private messages add ReceiverID and a read flag.
// Sender name/avatar are denormalized onto the row so surfaces never join.
type Message struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"owner_id"`
	SenderID     string  `json:"sender_id"`
	ReceiverID   string  `json:"receiver_id,omitempty"`
	SenderName   string  `json:"sender_name"`
	SenderAvatar string  `json:"sender_avatar,omitempty"`
	Body         string  `json:"body"`
	FileURL      *string `json:"file_url,omitempty"`
	FileName     *string `json:"file_name,omitempty"`
	FileType     *string `json:"file_type,omitempty"`

	ReplyToID      *string `json:"reply_to_id,omitempty"`
	ReplyToPreview *string `json:"reply_to_preview,omitempty"`
	ReplyToSender  *string `json:"reply_to_sender,omitempty"`

	IsRead    bool      `json:"is_read,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment describes an already-uploaded file referenced by a send.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ReplyRef carries the quoted-message context on a send.
type ReplyRef struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
	Sender  string `json:"sender"`
}

// SendRequest is the payload for posting a message. ReceiverID selects the
// private variant; empty means team-wide.
type SendRequest struct {
	OwnerID    string      `json:"owner_id"`
	ReceiverID string      `json:"receiver_id,omitempty"`
	Body       string      `json:"body"`
	Attachment *Attachment `json:"attachment,omitempty"`
	ReplyTo    *ReplyRef   `json:"reply_to,omitempty"`
}
