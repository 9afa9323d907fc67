package reaction

import (
	"encoding/json"
	"log"
	"net/http"

	"teamchat/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// Toggle handles POST /api/reactions.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)
	userName, _ := r.Context().Value(middleware.UsernameKey).(string)

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	re, added, err := h.service.Toggle(r.Context(), userID, userName, &req)
	if err != nil {
		log.Printf("[Reaction] toggle failed: %v", err)
		http.Error(w, "failed to toggle reaction", http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"added":    added,
		"reaction": re,
	})
}

// List handles GET /api/reactions?message_id=...&variant=...
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)
	messageID := r.URL.Query().Get("message_id")
	if messageID == "" {
		http.Error(w, "message_id is required", http.StatusBadRequest)
		return
	}
	variant := Variant(r.URL.Query().Get("variant"))
	if variant == "" {
		variant = VariantTeam
	}

	groups, err := h.service.List(r.Context(), variant, messageID, userID)
	if err != nil {
		log.Printf("[Reaction] list failed: %v", err)
		http.Error(w, "failed to load reactions", http.StatusInternalServerError)
		return
	}
	if groups == nil {
		groups = []Group{}
	}
	json.NewEncoder(w).Encode(map[string][]Group{"reactions": groups})
}
