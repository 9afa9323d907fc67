package message

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"teamchat/internal/middleware"
)

// IdentityResolver turns an authenticated user id into the sender identity
// (applying the chat nickname override and avatar). The chat orchestrator
// implements it.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (Identity, error)
}

type Handler struct {
	service  *Service
	resolver IdentityResolver
}

func NewHandler(service *Service, resolver IdentityResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

// Send handles POST /api/messages.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserKey).(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	sender, err := h.resolver.Resolve(r.Context(), userID)
	if err != nil {
		http.Error(w, "unknown sender", http.StatusUnauthorized)
		return
	}

	m, err := h.service.Send(r.Context(), sender, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrBlocked):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			log.Printf("[Message] send failed: %v", err)
			http.Error(w, "failed to send message", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(m)
}

// TeamHistory handles GET /api/messages/team?owner_id=...
func (h *Handler) TeamHistory(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	msgs, err := h.service.TeamHistory(r.Context(), ownerID)
	if err != nil {
		log.Printf("[Message] team history failed: %v", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	json.NewEncoder(w).Encode(map[string][]Message{"messages": msgs})
}

// PrivateHistory handles GET /api/messages/private?owner_id=...&with=...
// Fetching a thread also marks it read for the viewer.
func (h *Handler) PrivateHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)
	ownerID := r.URL.Query().Get("owner_id")
	otherID := r.URL.Query().Get("with")
	if ownerID == "" || otherID == "" {
		http.Error(w, "owner_id and with are required", http.StatusBadRequest)
		return
	}

	msgs, err := h.service.PrivateHistory(r.Context(), ownerID, userID, otherID)
	if err != nil {
		log.Printf("[Message] private history failed: %v", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	json.NewEncoder(w).Encode(map[string][]Message{"messages": msgs})
}

// Unread handles GET /api/messages/unread.
func (h *Handler) Unread(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)

	counts, err := h.service.UnreadCounts(r.Context(), userID)
	if err != nil {
		log.Printf("[Message] unread counts failed: %v", err)
		http.Error(w, "failed to load unread counts", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]map[string]int{"unread": counts})
}

// MarkRead handles POST /api/messages/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)

	var req struct {
		OwnerID  string `json:"owner_id"`
		SenderID string `json:"sender_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.service.MarkRead(r.Context(), req.OwnerID, req.SenderID, userID)
	if err != nil {
		log.Printf("[Message] mark-read failed: %v", err)
		http.Error(w, "failed to mark read", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]int64{"marked": n})
}

// Clear handles DELETE /api/messages?owner_id=...&with=...&confirm=true.
// Owner only and confirmation-gated; the result is reported synchronously.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)
	ownerID := r.URL.Query().Get("owner_id")
	otherID := r.URL.Query().Get("with")

	if r.URL.Query().Get("confirm") != "true" {
		http.Error(w, "confirmation required", http.StatusBadRequest)
		return
	}
	if ownerID == "" {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	var (
		n   int64
		err error
	)
	if otherID == "" {
		n, err = h.service.ClearTeam(r.Context(), userID, ownerID)
	} else {
		n, err = h.service.ClearPrivate(r.Context(), userID, ownerID, userID, otherID)
	}
	if err != nil {
		if errors.Is(err, ErrNotOwner) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		log.Printf("[Message] clear failed: %v", err)
		http.Error(w, "failed to clear messages", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]int64{"deleted": n})
}
