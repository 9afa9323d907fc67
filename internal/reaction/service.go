package reaction

import (
	"context"
	"encoding/json"
	"errors"

	"teamchat/internal/feed"
	"teamchat/internal/metrics"
)

// Service wires reaction toggles to the row store and the change feed.
// Insert/delete failures are returned to the caller but surfaces also
// reconcile on the next feed tick, so a lost response self-heals.
type Service struct {
	repo *Repository
	bus  *feed.Bus
}

func NewService(repo *Repository, bus *feed.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

type ToggleRequest struct {
	Variant   Variant `json:"variant"`
	Scope     string  `json:"scope"`
	MessageID string  `json:"message_id"`
	Value     string  `json:"value"`
	Type      string  `json:"type"`
}

func (s *Service) Toggle(ctx context.Context, userID, userName string, req *ToggleRequest) (*Reaction, bool, error) {
	if req.MessageID == "" || req.Value == "" {
		return nil, false, errors.New("message_id and value are required")
	}
	rtype := req.Type
	if rtype == "" {
		rtype = TypeEmoji
	}

	re := &Reaction{
		MessageID: req.MessageID,
		UserID:    userID,
		UserName:  userName,
		Type:      rtype,
		Value:     req.Value,
	}

	added, err := s.repo.Toggle(ctx, req.Variant, re)
	if err != nil {
		return nil, false, err
	}
	metrics.ReactionsToggled.Inc()

	op := feed.OpDelete
	sound := ""
	if added {
		op = feed.OpInsert
		// Sessions decide whether to actually play it: only the reacted
		// message's owner hears it, and never for their own reaction.
		sound = "reaction"
	}
	payload, _ := json.Marshal(re)
	_ = s.bus.Publish(ctx, feed.Event{
		Table:   string(req.Variant) + "_reactions",
		Op:      op,
		Scope:   req.Scope,
		Sound:   sound,
		Payload: payload,
	})

	return re, added, nil
}

// List returns the grouped view for one message from the viewer's side.
func (s *Service) List(ctx context.Context, v Variant, messageID, viewerID string) ([]Group, error) {
	rows, err := s.repo.ListByMessage(ctx, v, messageID)
	if err != nil {
		return nil, err
	}
	return GroupAll(rows, viewerID), nil
}
