package member

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"teamchat/internal/feed"
	"teamchat/internal/presence"
	"teamchat/internal/scope"
)

var ErrNotOwner = errors.New("only the team owner may do that")

const table = "team_members"

// Service owns roster mutations. Invite mail is delegated to an external
// sender elsewhere; creating the pending row is all that matters here.
type Service struct {
	repo *Repository
	bus  *feed.Bus
}

func NewService(repo *Repository, bus *feed.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Invite creates a pending membership with no linked user yet.
func (s *Service) Invite(ctx context.Context, callerID string, req *InviteRequest) (*Member, error) {
	if callerID != req.OwnerID {
		return nil, ErrNotOwner
	}
	if req.Name == "" || req.Email == "" {
		return nil, errors.New("name and email are required")
	}
	role := req.Role
	if role == "" {
		role = "member"
	}

	m := &Member{
		ID:       uuid.NewString(),
		OwnerID:  req.OwnerID,
		Name:     req.Name,
		Email:    req.Email,
		Role:     role,
		Position: req.Position,
		Status:   StatusPending,
		Presence: string(presence.Offline),
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}

	s.publishUpdate(ctx, m)
	return m, nil
}

// Roster lists the team with effective presence resolved from each row's
// published status and last_seen freshness.
func (s *Service) Roster(ctx context.Context, ownerID string) ([]Member, error) {
	members, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range members {
		members[i].Presence = string(presence.Effective(
			presence.Status(members[i].Presence), members[i].LastSeen, now))
	}
	return members, nil
}

// SetBlocked flips the chat-block flag on a member. Owner only. The updated
// row is pushed on the team scope so every surface disables or re-enables
// that member's composer at once.
func (s *Service) SetBlocked(ctx context.Context, callerID, memberID string, blocked bool) (*Member, error) {
	m, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != callerID {
		return nil, ErrNotOwner
	}

	if err := s.repo.SetBlocked(ctx, memberID, blocked); err != nil {
		return nil, err
	}
	m.IsChatBlocked = blocked

	s.publishUpdate(ctx, m)
	return m, nil
}

// LinkOnAuth satisfies the user service's MemberLinker: pending invites for
// the authenticated email become active memberships.
func (s *Service) LinkOnAuth(ctx context.Context, userID, email string) error {
	_, err := s.repo.LinkOnAuth(ctx, userID, email)
	return err
}

// IsChatBlocked is the message service's send gate.
func (s *Service) IsChatBlocked(ctx context.Context, ownerID, userID string) (bool, error) {
	return s.repo.IsChatBlocked(ctx, ownerID, userID)
}

func (s *Service) SetNickname(ctx context.Context, ownerID, userID, nickname string) error {
	return s.repo.SetNickname(ctx, ownerID, userID, nickname)
}

func (s *Service) publishUpdate(ctx context.Context, m *Member) {
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = s.bus.Publish(ctx, feed.Event{
		Table:   table,
		Op:      feed.OpUpdate,
		Scope:   scope.Team(m.OwnerID),
		Payload: payload,
	})
}
