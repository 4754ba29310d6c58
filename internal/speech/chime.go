package speech

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
)

// chimeTone is one partial of the completion cue.
type chimeTone struct {
	freq     float64
	duration float64 // seconds
}

// Two rising notes, each with an exponential decay.
var chimeTones = []chimeTone{
	{freq: 880, duration: 0.12},
	{freq: 1320, duration: 0.22},
}

const chimeAmplitude = 0.45

var (
	chimeOnce sync.Once
	chimeWAV  []byte
)

// Chime returns the completion cue as a WAV clip in the player's format.
// The clip is generated once and shared; callers must not modify it.
func Chime() []byte {
	chimeOnce.Do(func() {
		chimeWAV = encodeWAV(renderChime())
	})
	return chimeWAV
}

func renderChime() []int16 {
	var samples []int16
	for _, tone := range chimeTones {
		n := int(tone.duration * SampleRate)
		for i := 0; i < n; i++ {
			t := float64(i) / SampleRate
			env := math.Exp(-6 * t / tone.duration)
			v := chimeAmplitude * env * math.Sin(2*math.Pi*tone.freq*t)
			samples = append(samples, int16(v*math.MaxInt16))
		}
	}
	return samples
}

// encodeWAV wraps 16-bit mono PCM samples in a canonical 44-byte RIFF header.
func encodeWAV(samples []int16) []byte {
	const blockAlign = ChannelCount * BitDepth / 8
	dataSize := len(samples) * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)
	le := binary.LittleEndian

	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16))
	binary.Write(&buf, le, uint16(1)) // PCM
	binary.Write(&buf, le, uint16(ChannelCount))
	binary.Write(&buf, le, uint32(SampleRate))
	binary.Write(&buf, le, uint32(SampleRate*blockAlign))
	binary.Write(&buf, le, uint16(blockAlign))
	binary.Write(&buf, le, uint16(BitDepth))

	buf.WriteString("data")
	binary.Write(&buf, le, uint32(dataSize))
	binary.Write(&buf, le, samples)

	return buf.Bytes()
}
