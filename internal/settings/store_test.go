package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMissingUserGetsDefaults(t *testing.T) {
	s := openStore(t)

	cfg, err := s.Get("nobody")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.True(t, cfg.SoundEnabled)
}

func TestPutGetRoundtripIsPerUser(t *testing.T) {
	s := openStore(t)

	mine := ChatSettings{
		Nickname:     "nick",
		ChatTheme:    "midnight",
		Background:   "stars.png",
		SoundEnabled: false,
		SoundVolume:  0.3,
	}
	require.NoError(t, s.Put("u1", mine))

	got, err := s.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, mine, got)

	// Another user is untouched.
	other, err := s.Get("u2")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), other)
}

func TestVolumeIsClamped(t *testing.T) {
	s := openStore(t)

	cfg := Defaults()
	cfg.SoundVolume = 4.2
	require.NoError(t, s.Put("u1", cfg))
	got, _ := s.Get("u1")
	assert.Equal(t, 1.0, got.SoundVolume)

	cfg.SoundVolume = -1
	require.NoError(t, s.Put("u1", cfg))
	got, _ = s.Get("u1")
	assert.Equal(t, 0.0, got.SoundVolume)
}
