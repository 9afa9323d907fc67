package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"teamchat/internal/middleware"
	"teamchat/internal/sound"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

// Handler owns the websocket entry point plus the REST surface for chat
// settings and notification sounds.
type Handler struct {
	hub *Hub
	svc *Service
}

func NewHandler(hub *Hub, svc *Service) *Handler {
	return &Handler{hub: hub, svc: svc}
}

// ServeWs upgrades the connection and spins up a session for the
// authenticated user. Auth already ran in middleware.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)
	userName, _ := r.Context().Value(middleware.UsernameKey).(string)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Chat] upgrade failed: %v", err)
		return
	}

	// The request context dies when this handler returns; the session
	// outlives it and is cancelled through the hub instead.
	client := newClient(h.hub, conn)
	client.session = newSession(context.Background(), h.svc, client, userID, userName)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// GetSettings returns the caller's chat preferences, defaults included.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)

	cfg, err := h.svc.Settings.Get(userID)
	if err != nil {
		http.Error(w, "Could not load settings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

// PutSettings replaces the caller's chat preferences wholesale.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)

	var cfg struct {
		Nickname     string  `json:"nickname"`
		ChatTheme    string  `json:"chat_theme"`
		Background   string  `json:"background"`
		Status       string  `json:"status"`
		SoundEnabled bool    `json:"sound_enabled"`
		SoundVolume  float64 `json:"sound_volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	stored, err := h.svc.Settings.Get(userID)
	if err != nil {
		http.Error(w, "Could not load settings", http.StatusInternalServerError)
		return
	}
	stored.Nickname = cfg.Nickname
	stored.ChatTheme = cfg.ChatTheme
	stored.Background = cfg.Background
	stored.Status = cfg.Status
	stored.SoundEnabled = cfg.SoundEnabled
	stored.SoundVolume = cfg.SoundVolume

	if err := h.svc.Settings.Put(userID, stored); err != nil {
		http.Error(w, "Could not save settings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stored)
}

// Sound serves the named notification cue as a WAV, rendered at the
// caller's configured volume (override with ?volume=).
func (h *Handler) Sound(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserKey).(string)
	cue := chi.URLParam(r, "cue")

	if !sound.Valid(cue) {
		http.Error(w, "Unknown sound cue", http.StatusNotFound)
		return
	}

	cfg, err := h.svc.Settings.Get(userID)
	if err != nil {
		http.Error(w, "Could not load settings", http.StatusInternalServerError)
		return
	}
	volume := cfg.SoundVolume
	if raw := r.URL.Query().Get("volume"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			volume = v
		}
	}

	wav, err := sound.Generate(cue, volume)
	if err != nil {
		http.Error(w, "Could not render sound", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", fmt.Sprint(len(wav)))
	w.Header().Set("Cache-Control", "no-store") // volume bakes into the samples
	w.Write(wav)
}
