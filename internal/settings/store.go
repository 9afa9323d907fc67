// Package settings persists per-user chat preferences in a server-local
// key-value store. These deliberately do not live in the shared row store:
// cross-device sync is a non-goal, and keeping them out of Postgres keeps
// the chat tables about conversation state only.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// ChatSettings is one user's display and notification preferences.
type ChatSettings struct {
	Nickname     string  `json:"nickname,omitempty"`
	ChatTheme    string  `json:"chat_theme"`
	Background   string  `json:"background,omitempty"`
	Status       string  `json:"status,omitempty"`
	SoundEnabled bool    `json:"sound_enabled"`
	SoundVolume  float64 `json:"sound_volume"`
}

// Defaults is what a user who never touched their settings gets.
func Defaults() ChatSettings {
	return ChatSettings{
		ChatTheme:    "default",
		SoundEnabled: true,
		SoundVolume:  0.7,
	}
}

type Store struct {
	db *pebble.DB
}

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(userID string) []byte {
	return []byte("settings:" + userID)
}

// Get returns the user's settings, or the defaults when none are stored.
func (s *Store) Get(userID string) (ChatSettings, error) {
	data, closer, err := s.db.Get(key(userID))
	if errors.Is(err, pebble.ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), err
	}
	defer closer.Close()

	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}

func (s *Store) Put(userID string, cfg ChatSettings) error {
	if cfg.SoundVolume < 0 {
		cfg.SoundVolume = 0
	}
	if cfg.SoundVolume > 1 {
		cfg.SoundVolume = 1
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.db.Set(key(userID), data, pebble.Sync)
}
