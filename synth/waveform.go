package synth

import (
	"fmt"
	"math"
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
	WavePinky
	WavePonky

	numWaveforms
)

// rampDelta is the constant slope offset used by the Triangle and Ponky shapes.
const rampDelta = 1e-5

var waveformNames = [numWaveforms]string{"Sine", "Saw", "Square", "Triangle", "Pinky", "Ponky"}

// WaveformNames returns the choice labels in index order.
func WaveformNames() []string {
	return append([]string(nil), waveformNames[:]...)
}

func (w Waveform) String() string {
	if w.Validate() != nil {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// Validate reports ErrInvalidWaveform for indices outside the variant set.
func (w Waveform) Validate() error {
	if w < 0 || w >= numWaveforms {
		return fmt.Errorf("%w: index %d (supported 0..%d)", ErrInvalidWaveform, int(w), int(numWaveforms)-1)
	}
	return nil
}

// ParseWaveform maps a label (case-insensitive) to a Waveform.
func ParseWaveform(s string) (Waveform, error) {
	want := normalizeLabel(s)
	for i, n := range waveformNames {
		if normalizeLabel(n) == want {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWaveform, s)
}

// Sample evaluates waveform w at phase (radians) with the given amplitude.
// The phase is wrapped into the generator domain [-π, π) first.
// Sample panics on an unsupported waveform; callers validate at setup or
// use SampleChecked.
func Sample(w Waveform, phase float64, amp float32) float32 {
	x := wrapSigned(phase)
	a := float64(amp)
	switch w {
	case WaveSine:
		return float32(a * math.Sin(x))
	case WaveSaw:
		return float32(a * (x / math.Pi))
	case WaveSquare:
		if x < 0 {
			return -amp
		}
		return amp
	case WaveTriangle:
		return float32(a * ramp(x))
	case WavePinky:
		return float32(math.Sin(x) * math.Cos(x) * math.Sin(x) * 5 * a)
	case WavePonky:
		return float32(x * x * x * math.Cos(x*5) * ramp(x) * a / 10)
	}
	panic(w.Validate())
}

// SampleChecked is Sample for callers holding an unvalidated waveform: it
// returns ErrInvalidWaveform instead of panicking.
func SampleChecked(w Waveform, phase float64, amp float32) (float32, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	return Sample(w, phase, amp), nil
}

// ramp offsets x by rampDelta away from zero.
func ramp(x float64) float64 {
	if x >= 0 {
		return x + rampDelta
	}
	return x - rampDelta
}

// wrapSigned maps any phase into [-π, π).
func wrapSigned(x float64) float64 {
	if x >= -math.Pi && x < math.Pi {
		return x
	}
	x = math.Mod(x+math.Pi, twoPi)
	if x < 0 {
		x += twoPi
	}
	return x - math.Pi
}
