package sound

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate("message", 0.7)
	require.NoError(t, err)
	b, err := Generate("message", 0.7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateProducesValidWAV(t *testing.T) {
	for _, cue := range Cues() {
		data, err := Generate(cue, 1)
		require.NoError(t, err, cue)

		require.Greater(t, len(data), 44, cue)
		assert.Equal(t, "RIFF", string(data[0:4]), cue)
		assert.Equal(t, "WAVE", string(data[8:12]), cue)
		assert.Equal(t, "fmt ", string(data[12:16]), cue)
		assert.Equal(t, "data", string(data[36:40]), cue)

		riffSize := binary.LittleEndian.Uint32(data[4:8])
		assert.Equal(t, int(riffSize)+8, len(data), cue)

		dataSize := binary.LittleEndian.Uint32(data[40:44])
		assert.Equal(t, int(dataSize), len(data)-44, cue)
		assert.Zero(t, dataSize%2, "16-bit samples, %s", cue)
	}
}

func TestCuesDifferFromEachOther(t *testing.T) {
	msg, _ := Generate("message", 1)
	reaction, _ := Generate("reaction", 1)
	assert.False(t, bytes.Equal(msg, reaction))
}

func TestZeroVolumeIsSilence(t *testing.T) {
	data, err := Generate("reaction", 0)
	require.NoError(t, err)

	for i := 44; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i : i+2]))
		require.Zero(t, sample)
	}
}

func TestVolumeOutOfRangeIsClamped(t *testing.T) {
	loud, err := Generate("message", 99)
	require.NoError(t, err)
	max, err := Generate("message", 1)
	require.NoError(t, err)
	assert.Equal(t, max, loud)
}

func TestUnknownCue(t *testing.T) {
	_, err := Generate("airhorn", 1)
	assert.Error(t, err)
	assert.False(t, Valid("airhorn"))
	assert.True(t, Valid("private"))
}
