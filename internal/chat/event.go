package chat

import (
	"encoding/json"

	"teamchat/internal/message"
)

// WSEvent is the envelope for everything crossing the websocket, both
// directions. Type selects the Data shape.
type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func newEvent(eventType string, data any) (*WSEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &WSEvent{Type: eventType, Data: payload}, nil
}

// Client -> server commands.
type joinCmd struct {
	OwnerID string `json:"owner_id"`
}

type openDMCmd struct {
	OwnerID string `json:"owner_id"`
	PeerID  string `json:"peer_id"`
}

type sendCmd struct {
	Body       string              `json:"body"`
	Attachment *message.Attachment `json:"attachment,omitempty"`
	ReplyTo    *message.ReplyRef   `json:"reply_to,omitempty"`
}

type reactCmd struct {
	MessageID string `json:"message_id"`
	Value     string `json:"value"`
	Type      string `json:"type,omitempty"`
}

type statusCmd struct {
	Status string `json:"status"`
}

type markReadCmd struct {
	SenderID string `json:"sender_id"`
}

type viewportCmd struct {
	W int `json:"w"`
	H int `json:"h"`
}

type windowCmd struct {
	Action string `json:"action"`
	PeerID string `json:"peer_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// Server -> client payloads that are not plain feature models.
type errorPayload struct {
	Message string `json:"message"`
}

type unreadPayload struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

type clearedPayload struct {
	Scope string `json:"scope"`
}

type readPayload struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}

type windowPayload struct {
	PeerID string `json:"peer_id"`
	Mode   string `json:"mode"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
}
