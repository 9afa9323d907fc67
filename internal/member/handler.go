package member

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamchat/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// Invite handles POST /api/members.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := h.service.Invite(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrNotOwner) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(m)
}

// Roster handles GET /api/members?owner_id=...
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	members, err := h.service.Roster(r.Context(), ownerID)
	if err != nil {
		log.Printf("[Member] roster failed: %v", err)
		http.Error(w, "failed to load roster", http.StatusInternalServerError)
		return
	}
	if members == nil {
		members = []Member{}
	}
	json.NewEncoder(w).Encode(map[string][]Member{"members": members})
}

// SetBlocked handles POST /api/members/{id}/block. Confirmation-gated like
// every destructive admin action; the result is reported synchronously.
func (h *Handler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)
	memberID := chi.URLParam(r, "id")

	var req struct {
		Blocked bool `json:"blocked"`
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Confirm {
		http.Error(w, "confirmation required", http.StatusBadRequest)
		return
	}

	m, err := h.service.SetBlocked(r.Context(), userID, memberID, req.Blocked)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotOwner):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("[Member] block toggle failed: %v", err)
			http.Error(w, "failed to update member", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(m)
}

// SetNickname handles PUT /api/members/nickname: the caller renames
// themselves on one team's roster. Empty nickname reverts to the profile
// display name.
func (h *Handler) SetNickname(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)

	var req struct {
		OwnerID  string `json:"owner_id"`
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.SetNickname(r.Context(), req.OwnerID, userID, req.Nickname); err != nil {
		log.Printf("[Member] nickname update failed: %v", err)
		http.Error(w, "failed to update nickname", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
