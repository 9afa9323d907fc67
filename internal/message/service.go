package message

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"

	"teamchat/internal/feed"
	"teamchat/internal/metrics"
	"teamchat/internal/scope"
)

var (
	ErrEmptyMessage = errors.New("message needs a body or an attachment")
	ErrBlocked      = errors.New("sender is blocked from chat")
	ErrNotOwner     = errors.New("only the team owner may do that")
)

// Identity is the sender as the session resolved it: the chat nickname, if
// one is set, already replaces the display name here.
type Identity struct {
	ID     string
	Name   string
	Avatar string
}

// BlockChecker is what the service needs from the member feature.
type BlockChecker interface {
	IsChatBlocked(ctx context.Context, ownerID, userID string) (bool, error)
}

const (
	TableTeam    = "team_messages"
	TablePrivate = "private_messages"
)

// ReadReceipt is the synthetic update event published when a thread is
// marked read, so every open surface flips its local rows without a refetch.
type ReadReceipt struct {
	Kind       string `json:"kind"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}

// ClearNotice is the delete event published when an admin wipes a scope.
type ClearNotice struct {
	Kind string `json:"kind"`
}

// Service owns every message mutation. It is the single path between user
// actions and the row store, and the only publisher of message feed events.
type Service struct {
	repo   *Repository
	bus    *feed.Bus
	blocks BlockChecker
}

func NewService(repo *Repository, bus *feed.Bus, blocks BlockChecker) *Service {
	return &Service{repo: repo, bus: bus, blocks: blocks}
}

// Send validates, inserts and publishes one message. The returned row (with
// the store's created_at) is what the caller appends optimistically; the
// feed echo carries the same id and is deduplicated downstream.
func (s *Service) Send(ctx context.Context, sender Identity, req *SendRequest) (*Message, error) {
	if req.Body == "" && req.Attachment == nil {
		return nil, ErrEmptyMessage
	}

	blocked, err := s.blocks.IsChatBlocked(ctx, req.OwnerID, sender.ID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	m := &Message{
		ID:           uuid.NewString(),
		OwnerID:      req.OwnerID,
		SenderID:     sender.ID,
		ReceiverID:   req.ReceiverID,
		SenderName:   sender.Name,
		SenderAvatar: sender.Avatar,
		Body:         req.Body,
	}
	if req.Attachment != nil {
		m.FileURL = &req.Attachment.URL
		m.FileName = &req.Attachment.Name
		m.FileType = &req.Attachment.Type
	}
	if req.ReplyTo != nil {
		m.ReplyToID = &req.ReplyTo.ID
		m.ReplyToPreview = &req.ReplyTo.Preview
		m.ReplyToSender = &req.ReplyTo.Sender
	}

	if req.ReceiverID == "" {
		if _, err := s.repo.InsertTeam(ctx, m); err != nil {
			return nil, err
		}
		metrics.MessagesSent.WithLabelValues("team").Inc()
		s.publishInsert(ctx, TableTeam, scope.Team(m.OwnerID), "message", m)
		return m, nil
	}

	if _, err := s.repo.InsertPrivate(ctx, m); err != nil {
		return nil, err
	}
	metrics.MessagesSent.WithLabelValues("private").Inc()
	dmKey := scope.DM(m.OwnerID, m.SenderID, m.ReceiverID)
	s.publishInsert(ctx, TablePrivate, dmKey, "private", m)
	// Second copy on the receiver's own channel drives unread counters for
	// threads that are not the active scope.
	s.publishInsert(ctx, TablePrivate, scope.User(m.ReceiverID), "private", m)
	return m, nil
}

// TeamHistory fetches the capped recent window of the team conversation.
func (s *Service) TeamHistory(ctx context.Context, ownerID string) ([]Message, error) {
	return s.repo.RecentTeam(ctx, ownerID)
}

// PrivateHistory fetches the capped recent window of a 1:1 thread and marks
// the viewer's side read, mirroring the open-thread behavior.
func (s *Service) PrivateHistory(ctx context.Context, ownerID, viewerID, otherID string) ([]Message, error) {
	msgs, err := s.repo.RecentPrivate(ctx, ownerID, viewerID, otherID)
	if err != nil {
		return nil, err
	}
	if _, err := s.MarkRead(ctx, ownerID, otherID, viewerID); err != nil {
		// Read-marking is best effort here; the unread view self-heals on
		// the next feed tick.
		log.Printf("[Message] mark-read on fetch failed: %v", err)
	}
	return msgs, nil
}

// MarkRead flips is_read for messages from senderID to receiverID and
// publishes a read receipt on the thread scope and the receiver's channel.
func (s *Service) MarkRead(ctx context.Context, ownerID, senderID, receiverID string) (int64, error) {
	n, err := s.repo.MarkRead(ctx, ownerID, senderID, receiverID)
	if err != nil || n == 0 {
		return n, err
	}

	receipt := ReadReceipt{Kind: "read", SenderID: senderID, ReceiverID: receiverID}
	payload, _ := json.Marshal(receipt)
	for _, scope := range []string{
		scope.DM(ownerID, senderID, receiverID),
		scope.User(receiverID),
	} {
		s.publish(ctx, feed.Event{
			Table:   TablePrivate,
			Op:      feed.OpUpdate,
			Scope:   scope,
			Payload: payload,
		})
	}
	return n, nil
}

// UnreadCounts exposes the derived per-sender unread view.
func (s *Service) UnreadCounts(ctx context.Context, receiverID string) (map[string]int, error) {
	return s.repo.UnreadCounts(ctx, receiverID)
}

// ClearTeam wipes the team conversation. Owner only; the result is reported
// synchronously because the admin just asked for it.
func (s *Service) ClearTeam(ctx context.Context, callerID, ownerID string) (int64, error) {
	if callerID != ownerID {
		return 0, ErrNotOwner
	}
	n, err := s.repo.ClearTeam(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	s.publishClear(ctx, TableTeam, scope.Team(ownerID))
	return n, nil
}

// ClearPrivate wipes one 1:1 thread under the owner's team.
func (s *Service) ClearPrivate(ctx context.Context, callerID, ownerID, a, b string) (int64, error) {
	if callerID != ownerID {
		return 0, ErrNotOwner
	}
	n, err := s.repo.ClearPrivate(ctx, ownerID, a, b)
	if err != nil {
		return 0, err
	}
	s.publishClear(ctx, TablePrivate, scope.DM(ownerID, a, b))
	return n, nil
}

func (s *Service) publishInsert(ctx context.Context, table, scope, sound string, m *Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	s.publish(ctx, feed.Event{
		Table:   table,
		Op:      feed.OpInsert,
		Scope:   scope,
		Sound:   sound,
		Payload: payload,
	})
}

func (s *Service) publishClear(ctx context.Context, table, scope string) {
	payload, _ := json.Marshal(ClearNotice{Kind: "clear"})
	s.publish(ctx, feed.Event{
		Table:   table,
		Op:      feed.OpDelete,
		Scope:   scope,
		Payload: payload,
	})
}

func (s *Service) publish(ctx context.Context, ev feed.Event) {
	// The row is committed; delivery failure only delays surfaces until
	// their next fetch.
	_ = s.bus.Publish(ctx, ev)
}
