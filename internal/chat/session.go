package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"

	"teamchat/internal/channel"
	"teamchat/internal/feed"
	"teamchat/internal/member"
	"teamchat/internal/message"
	"teamchat/internal/metrics"
	"teamchat/internal/presence"
	"teamchat/internal/reaction"
	"teamchat/internal/scope"
	"teamchat/internal/settings"
	"teamchat/internal/unread"
	"teamchat/internal/window"
)

// Session is one connected surface: the active conversation channel, the
// unread counters, the presence tracker, the pop-out windows and the user's
// chat settings, all fed by scoped change-feed subscriptions.
type Session struct {
	userID   string
	userName string

	svc    *Service
	client *Client

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	ownerID   string
	dmPeer    string // empty while the team scope is active
	epoch     uint64
	activeSub *feed.Subscription
	cfg       settings.ChatSettings

	state   *channel.State
	counts  *unread.Counter
	windows *window.Manager
	tracker *presence.Tracker
}

func newSession(ctx context.Context, svc *Service, client *Client, userID, userName string) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		userID:   userID,
		userName: userName,
		svc:      svc,
		client:   client,
		ctx:      ctx,
		cancel:   cancel,
		state:    channel.NewState(),
		counts:   unread.NewCounter(),
		windows:  window.NewManager(window.Size{W: 1280, H: 720}),
		tracker:  presence.NewTracker(userID, svc.Presence),
	}

	cfg, err := svc.Settings.Get(userID)
	if err != nil {
		log.Printf("[Chat] settings for %s unavailable, using defaults: %v", userID, err)
		cfg = settings.Defaults()
	}
	s.cfg = cfg

	go s.tracker.Run(ctx)

	// Seed strictly before the user-feed subscription opens, so a feed
	// increment can never be overwritten by a stale seed. A message landing
	// in the gap between the count query and the subscribe is picked up on
	// the next thread open.
	go func() {
		s.seedUnread()
		s.pumpUserFeed(svc.Bus.Subscribe(ctx, scope.User(userID)))
	}()

	return s
}

// Stop tears the session down: subscriptions close with the context and the
// tracker publishes offline on its way out.
func (s *Session) Stop() {
	s.cancel()
	s.mu.Lock()
	if s.activeSub != nil {
		s.activeSub.Close()
		s.activeSub = nil
	}
	s.mu.Unlock()
}

func (s *Session) seedUnread() {
	counts, err := s.svc.Messages.UnreadCounts(s.ctx, s.userID)
	if err != nil {
		log.Printf("[Chat] unread seed for %s failed: %v", s.userID, err)
		return
	}
	s.counts.Seed(counts)
	s.emitUnread()
}

// HandleCommand dispatches one inbound websocket event. Any command counts
// as user activity for presence purposes.
func (s *Session) HandleCommand(ev *WSEvent) {
	s.tracker.RecordActivity(s.ctx)

	switch ev.Type {
	case "join":
		var cmd joinCmd
		if !s.decode(ev, &cmd) {
			return
		}
		s.joinTeam(cmd.OwnerID)
	case "open_dm":
		var cmd openDMCmd
		if !s.decode(ev, &cmd) {
			return
		}
		s.openDM(cmd.OwnerID, cmd.PeerID)
	case "send":
		var cmd sendCmd
		if !s.decode(ev, &cmd) {
			return
		}
		s.sendMessage(&cmd)
	case "react":
		var cmd reactCmd
		if !s.decode(ev, &cmd) {
			return
		}
		s.toggleReaction(&cmd)
	case "mark_read":
		var cmd markReadCmd
		if !s.decode(ev, &cmd) {
			return
		}
		s.markRead(cmd.SenderID)
	case "activity":
		// Already recorded above.
	case "set_status":
		var cmd statusCmd
		if !s.decode(ev, &cmd) {
			return
		}
		s.setStatus(cmd.Status)
	case "viewport":
		var cmd viewportCmd
		if !s.decode(ev, &cmd) {
			return
		}
		s.windows.SetViewport(window.Size{W: cmd.W, H: cmd.H})
	case "window":
		var cmd windowCmd
		if !s.decode(ev, &cmd) {
			return
		}
		s.handleWindow(&cmd)
	default:
		s.client.Emit("error", errorPayload{Message: "unknown command " + ev.Type})
	}
}

func (s *Session) decode(ev *WSEvent, into any) bool {
	if err := json.Unmarshal(ev.Data, into); err != nil {
		s.client.Emit("error", errorPayload{Message: "malformed " + ev.Type + " command"})
		return false
	}
	return true
}

// joinTeam binds the session to the team-wide scope.
func (s *Session) joinTeam(ownerID string) {
	if ownerID == "" {
		s.client.Emit("error", errorPayload{Message: "owner_id is required"})
		return
	}
	s.bindScope(ownerID, "", scope.Team(ownerID), func(ctx context.Context) ([]message.Message, error) {
		return s.svc.Messages.TeamHistory(ctx, ownerID)
	})
}

// openDM binds the session to a 1:1 thread. Fetching marks the thread read,
// so the peer's unread badge clears as a side effect.
func (s *Session) openDM(ownerID, peerID string) {
	if ownerID == "" || peerID == "" {
		s.client.Emit("error", errorPayload{Message: "owner_id and peer_id are required"})
		return
	}
	s.bindScope(ownerID, peerID, scope.DM(ownerID, s.userID, peerID), func(ctx context.Context) ([]message.Message, error) {
		return s.svc.Messages.PrivateHistory(ctx, ownerID, s.userID, peerID)
	})
	s.counts.ClearSender(peerID)
	s.emitUnread()
}

// bindScope is the one scope-switch path: the previous subscription is torn
// down before the new one opens, and the fetch runs against the new epoch
// so a slow result from the old scope can never land here.
func (s *Session) bindScope(ownerID, dmPeer, key string, fetch func(context.Context) ([]message.Message, error)) {
	s.mu.Lock()
	if s.activeSub != nil {
		s.activeSub.Close()
	}
	s.ownerID = ownerID
	s.dmPeer = dmPeer
	s.epoch = s.state.Bind(key)
	epoch := s.epoch
	sub := s.svc.Bus.Subscribe(s.ctx, key)
	s.activeSub = sub
	s.mu.Unlock()

	go s.pumpScopeFeed(sub, epoch)

	go func() {
		msgs, err := fetch(s.ctx)
		if err != nil {
			// Prior state stays; the surface shows what it had.
			log.Printf("[Chat] history fetch for %s failed: %v", key, err)
			return
		}
		if s.state.Load(epoch, msgs) {
			s.client.Emit("history", map[string]any{
				"scope":    key,
				"messages": s.state.Messages(),
			})
		}
	}()
}

// pumpScopeFeed routes events for the active conversation scope.
func (s *Session) pumpScopeFeed(sub *feed.Subscription, epoch uint64) {
	for ev := range sub.Events {
		metrics.FeedEvents.Inc()
		s.handleScopeEvent(ev, epoch)
	}
}

func (s *Session) handleScopeEvent(ev feed.Event, epoch uint64) {
	switch ev.Table {
	case message.TableTeam, message.TablePrivate:
		s.handleMessageEvent(ev, epoch)
	case "team_reactions", "private_reactions":
		s.handleReactionEvent(ev)
	case "team_members":
		var m member.Member
		if err := json.Unmarshal(ev.Payload, &m); err == nil {
			s.client.Emit("member", m)
		}
	}
}

func (s *Session) handleMessageEvent(ev feed.Event, epoch uint64) {
	switch ev.Op {
	case feed.OpInsert:
		var m message.Message
		if err := json.Unmarshal(ev.Payload, &m); err != nil {
			return
		}
		// The sender's own optimistic append arrives here too; the id
		// check inside Upsert suppresses the duplicate.
		if !s.state.Upsert(epoch, m) {
			return
		}
		s.emitMessage(s.state.Scope(), &m, ev.Sound)

		// Incoming private message on the open thread: the viewer is
		// looking right at it, so it is read immediately.
		if ev.Table == message.TablePrivate && m.ReceiverID == s.userID {
			go func() {
				if _, err := s.svc.Messages.MarkRead(s.ctx, m.OwnerID, m.SenderID, s.userID); err != nil {
					log.Printf("[Chat] mark-read on receipt failed: %v", err)
				}
			}()
		}

	case feed.OpUpdate:
		var receipt message.ReadReceipt
		if err := json.Unmarshal(ev.Payload, &receipt); err != nil || receipt.Kind != "read" {
			return
		}
		if s.state.MarkRead(epoch, receipt.SenderID, receipt.ReceiverID) > 0 {
			s.client.Emit("read", readPayload{SenderID: receipt.SenderID, ReceiverID: receipt.ReceiverID})
		}

	case feed.OpDelete:
		if s.state.Clear(epoch) {
			s.client.Emit("cleared", clearedPayload{Scope: s.state.Scope()})
		}
	}
}

func (s *Session) handleReactionEvent(ev feed.Event) {
	var re reaction.Reaction
	if err := json.Unmarshal(ev.Payload, &re); err != nil {
		return
	}

	// The cue plays only for the reacted message's owner, never for the
	// reactor themselves, and only when the user wants sounds at all.
	sound := ""
	if ev.Sound != "" && re.UserID != s.userID {
		if owned, ok := s.state.Get(re.MessageID); ok && owned.SenderID == s.userID {
			sound = ev.Sound
		}
	}

	s.client.Emit("reaction", map[string]any{
		"op":       ev.Op,
		"reaction": re,
		"sound":    s.gateSound(sound),
	})
}

// pumpUserFeed routes the per-user notification channel: unread counters
// and read receipts from other surfaces, independent of the active scope.
func (s *Session) pumpUserFeed(sub *feed.Subscription) {
	for ev := range sub.Events {
		metrics.FeedEvents.Inc()
		if ev.Table != message.TablePrivate {
			continue
		}
		switch ev.Op {
		case feed.OpInsert:
			var m message.Message
			if err := json.Unmarshal(ev.Payload, &m); err != nil || m.ReceiverID != s.userID {
				continue
			}
			s.mu.Lock()
			activeThread := s.dmPeer == m.SenderID
			s.mu.Unlock()
			if activeThread {
				// The scope pump shows and read-marks it; no badge.
				continue
			}
			s.counts.Incoming(m.SenderID)
			s.emitUnreadWithSound(ev.Sound)
		case feed.OpUpdate:
			var receipt message.ReadReceipt
			if err := json.Unmarshal(ev.Payload, &receipt); err != nil || receipt.Kind != "read" {
				continue
			}
			if receipt.ReceiverID == s.userID {
				s.counts.ClearSender(receipt.SenderID)
				s.emitUnread()
			}
		}
	}
}

// sendMessage posts into the active scope and appends the returned row
// optimistically. The feed echo of the same id is a no-op by dedup.
func (s *Session) sendMessage(cmd *sendCmd) {
	s.mu.Lock()
	ownerID, dmPeer, epoch := s.ownerID, s.dmPeer, s.epoch
	s.mu.Unlock()

	if ownerID == "" {
		s.client.Emit("error", errorPayload{Message: "join a conversation first"})
		return
	}

	sender, err := s.svc.Resolve(s.ctx, s.userID)
	if err != nil {
		s.client.Emit("error", errorPayload{Message: "could not resolve sender"})
		return
	}

	m, err := s.svc.Messages.Send(s.ctx, sender, &message.SendRequest{
		OwnerID:    ownerID,
		ReceiverID: dmPeer,
		Body:       cmd.Body,
		Attachment: cmd.Attachment,
		ReplyTo:    cmd.ReplyTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, message.ErrBlocked):
			s.client.Emit("error", errorPayload{Message: "you are blocked from sending messages"})
		case errors.Is(err, message.ErrEmptyMessage):
			s.client.Emit("error", errorPayload{Message: err.Error()})
		default:
			log.Printf("[Chat] send for %s failed: %v", s.userID, err)
			s.client.Emit("error", errorPayload{Message: "message not sent"})
		}
		return
	}

	if s.state.Upsert(epoch, *m) {
		s.emitMessage(s.state.Scope(), m, "")
	}
}

// toggleReaction flips the caller's reaction on a message in the active
// scope. The result comes back through the feed; nothing is emitted here.
func (s *Session) toggleReaction(cmd *reactCmd) {
	s.mu.Lock()
	dmPeer := s.dmPeer
	key := s.state.Scope()
	s.mu.Unlock()

	if key == "" {
		s.client.Emit("error", errorPayload{Message: "join a conversation first"})
		return
	}
	variant := reaction.VariantTeam
	if dmPeer != "" {
		variant = reaction.VariantPrivate
	}

	sender, err := s.svc.Resolve(s.ctx, s.userID)
	if err != nil {
		s.client.Emit("error", errorPayload{Message: "could not resolve sender"})
		return
	}

	_, _, err = s.svc.Reactions.Toggle(s.ctx, s.userID, sender.Name, &reaction.ToggleRequest{
		Variant:   variant,
		Scope:     key,
		MessageID: cmd.MessageID,
		Value:     cmd.Value,
		Type:      cmd.Type,
	})
	if err != nil {
		s.client.Emit("error", errorPayload{Message: "reaction not applied"})
	}
}

func (s *Session) markRead(senderID string) {
	s.mu.Lock()
	ownerID := s.ownerID
	s.mu.Unlock()

	if ownerID == "" {
		s.client.Emit("error", errorPayload{Message: "join a conversation first"})
		return
	}

	if _, err := s.svc.Messages.MarkRead(s.ctx, ownerID, senderID, s.userID); err != nil {
		log.Printf("[Chat] mark-read failed: %v", err)
		return
	}
	s.counts.ClearSender(senderID)
	s.emitUnread()
}

func (s *Session) setStatus(status string) {
	st := presence.Status(status)
	if status != "" && !st.Manual() {
		s.client.Emit("error", errorPayload{Message: "not a manual status"})
		return
	}
	s.tracker.SetManual(s.ctx, st)

	s.mu.Lock()
	s.cfg.Status = status
	cfg := s.cfg
	s.mu.Unlock()
	if err := s.svc.Settings.Put(s.userID, cfg); err != nil {
		log.Printf("[Chat] persist status for %s failed: %v", s.userID, err)
	}
}

func (s *Session) handleWindow(cmd *windowCmd) {
	if cmd.PeerID == "" {
		s.client.Emit("error", errorPayload{Message: "peer_id is required"})
		return
	}

	var w *window.Window
	if cmd.Action == "open" {
		w = s.windows.Open(cmd.PeerID)
	} else {
		var ok bool
		w, ok = s.windows.Get(cmd.PeerID)
		if !ok {
			s.client.Emit("error", errorPayload{Message: "no such window"})
			return
		}
	}

	var err error
	switch cmd.Action {
	case "open":
		// Created or restored above.
	case "close":
		s.windows.Close(cmd.PeerID)
	case "minimize":
		w.Minimize()
	case "restore":
		w.Restore()
	case "fullscreen":
		w.ToggleFullscreen()
	case "drag_start":
		err = w.BeginDrag(cmd.X, cmd.Y)
	case "drag_move":
		err = w.DragTo(cmd.X, cmd.Y)
	case "drag_end":
		w.EndDrag()
	case "resize_start":
		err = w.BeginResize(cmd.X, cmd.Y)
	case "resize_move":
		err = w.ResizeTo(cmd.X, cmd.Y)
	case "resize_end":
		w.EndResize()
	default:
		s.client.Emit("error", errorPayload{Message: "unknown window action " + cmd.Action})
		return
	}
	if err != nil {
		s.client.Emit("error", errorPayload{Message: err.Error()})
		return
	}

	b := w.Bounds()
	s.client.Emit("window", windowPayload{
		PeerID: cmd.PeerID,
		Mode:   w.Mode().String(),
		X:      b.X, Y: b.Y, W: b.W, H: b.H,
	})
}

func (s *Session) emitMessage(scope string, m *message.Message, sound string) {
	if m.SenderID == s.userID {
		sound = ""
	}
	// A direct @-mention upgrades the cue.
	if sound != "" && s.userName != "" && strings.Contains(m.Body, "@"+s.userName) {
		sound = "mention"
	}
	s.client.Emit("message", map[string]any{
		"scope":   scope,
		"message": m,
		"sound":   s.gateSound(sound),
	})
}

func (s *Session) emitUnread() {
	s.client.Emit("unread", unreadPayload{Counts: s.counts.Counts(), Total: s.counts.Total()})
}

func (s *Session) emitUnreadWithSound(sound string) {
	s.client.Emit("unread", unreadPayload{Counts: s.counts.Counts(), Total: s.counts.Total()})
	if cue := s.gateSound(sound); cue != "" {
		s.client.Emit("sound", map[string]string{"cue": cue})
	}
}

// gateSound applies the user's sound preference to a cue hint.
func (s *Session) gateSound(sound string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.SoundEnabled {
		return ""
	}
	return sound
}
