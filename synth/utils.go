package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const twoPi = 2 * math.Pi

// NoteFrequency converts a MIDI note number to Hz (equal temperament, A4 = 440 Hz).
func NoteFrequency(note int) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	if note == a4Note {
		return a4Freq
	}
	exponent := float32(note-a4Note) / 12.0
	return a4Freq * pow2Approx(exponent)
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clearBuffer(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
