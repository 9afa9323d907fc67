// Package sound synthesizes the short notification cues procedurally
// instead of shipping audio assets. Each cue is a handful of sine partials
// with exponential decay, rendered to 16-bit mono WAV. Output is
// deterministic for a given cue and volume, so surfaces may cache freely.
package sound

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	sampleRate = 44100
	decayTau   = 0.05 // seconds; exponential envelope time constant
)

// A tone is one sine partial: frequency, onset and length in seconds.
type tone struct {
	freq  float64
	start float64
	dur   float64
}

// Cue names map to their tone sequences. The two-note shapes rise for
// incoming messages and fall back for reactions, so they read differently
// with eyes closed.
var cues = map[string][]tone{
	"message": {
		{freq: 880, start: 0, dur: 0.09},
		{freq: 1174.66, start: 0.09, dur: 0.14},
	},
	"private": {
		{freq: 659.25, start: 0, dur: 0.08},
		{freq: 880, start: 0.08, dur: 0.08},
		{freq: 1318.51, start: 0.16, dur: 0.16},
	},
	"reaction": {
		{freq: 1567.98, start: 0, dur: 0.06},
		{freq: 1174.66, start: 0.06, dur: 0.1},
	},
	"mention": {
		{freq: 987.77, start: 0, dur: 0.07},
		{freq: 987.77, start: 0.12, dur: 0.07},
		{freq: 1479.98, start: 0.24, dur: 0.18},
	},
}

// Cues lists the available cue names.
func Cues() []string {
	names := make([]string, 0, len(cues))
	for name := range cues {
		names = append(names, name)
	}
	return names
}

// Valid reports whether the named cue exists.
func Valid(cue string) bool {
	_, ok := cues[cue]
	return ok
}

// Generate renders the named cue at the given volume (clamped to 0..1) as a
// complete WAV file.
func Generate(cue string, volume float64) ([]byte, error) {
	tones, ok := cues[cue]
	if !ok {
		return nil, fmt.Errorf("unknown sound cue %q", cue)
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	var total float64
	for _, t := range tones {
		if end := t.start + t.dur; end > total {
			total = end
		}
	}
	// Short release tail so the last note does not click off.
	total += 0.05

	n := int(total * sampleRate)
	samples := make([]float64, n)
	for _, t := range tones {
		renderTone(samples, t)
	}

	pcm := make([]int16, n)
	for i, s := range samples {
		s *= volume * 0.8
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		pcm[i] = int16(s * math.MaxInt16)
	}

	return encodeWAV(pcm), nil
}

func renderTone(samples []float64, t tone) {
	start := int(t.start * sampleRate)
	length := int((t.dur + 0.05) * sampleRate) // let the envelope ring out
	for i := 0; i < length && start+i < len(samples); i++ {
		tt := float64(i) / sampleRate
		env := math.Exp(-tt / decayTau)
		samples[start+i] += math.Sin(2*math.Pi*t.freq*tt) * env
	}
}

// encodeWAV wraps PCM samples in a minimal RIFF/WAVE container: PCM format
// chunk plus one data chunk, mono, 16-bit.
func encodeWAV(pcm []int16) []byte {
	dataSize := uint32(len(pcm) * 2)
	var buf bytes.Buffer

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, pcm)

	return buf.Bytes()
}
