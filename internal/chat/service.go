package chat

import (
	"context"

	"teamchat/internal/feed"
	"teamchat/internal/member"
	"teamchat/internal/message"
	"teamchat/internal/presence"
	"teamchat/internal/reaction"
	"teamchat/internal/settings"
	"teamchat/internal/user"
)

// Service bundles everything a chat session composes: the feature services,
// the per-user settings store and the change-feed bus. It also resolves
// sender identities for the REST send path.
type Service struct {
	Users     *user.Service
	Members   *member.Service
	Messages  *message.Service
	Reactions *reaction.Service
	Settings  *settings.Store
	Bus       *feed.Bus
	Presence  presence.Publisher
}

// Resolve maps an authenticated user to the identity stamped onto messages:
// the profile's display name and avatar, with the chat nickname override
// applied when one is set.
func (s *Service) Resolve(ctx context.Context, userID string) (message.Identity, error) {
	p, err := s.Users.GetProfile(ctx, userID)
	if err != nil {
		return message.Identity{}, err
	}

	name := p.DisplayName
	if cfg, err := s.Settings.Get(userID); err == nil && cfg.Nickname != "" {
		name = cfg.Nickname
	}

	return message.Identity{
		ID:     p.ID,
		Name:   name,
		Avatar: p.AvatarURL,
	}, nil
}
