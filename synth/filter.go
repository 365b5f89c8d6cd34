package synth

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cwbudde/algo-subsynth/dsp"
)

// FilterType selects the coefficient design of the filter stage.
type FilterType int

const (
	LowPass FilterType = iota
	BandPass
	HighPass

	numFilterTypes
)

// Runtime limits applied before coefficient design.
const (
	MinFilterQ      = 0.1
	MaxFilterQ      = 20.0
	maxCutoffRatio  = 0.49 // of the sample rate
	minFilterCutoff = 1.0
)

var filterTypeNames = [numFilterTypes]string{"Low-Pass", "Band-Pass", "High-Pass"}

// FilterTypeNames returns the choice labels in index order.
func FilterTypeNames() []string {
	return append([]string(nil), filterTypeNames[:]...)
}

func (f FilterType) String() string {
	if f.Validate() != nil {
		return fmt.Sprintf("FilterType(%d)", int(f))
	}
	return filterTypeNames[f]
}

// Validate reports ErrInvalidFilterType for indices outside the variant set.
func (f FilterType) Validate() error {
	if f < 0 || f >= numFilterTypes {
		return fmt.Errorf("%w: index %d (supported 0..%d)", ErrInvalidFilterType, int(f), int(numFilterTypes)-1)
	}
	return nil
}

// ParseFilterType maps a label such as "low-pass" or "lowpass" to a FilterType.
func ParseFilterType(s string) (FilterType, error) {
	want := normalizeLabel(s)
	for i, n := range filterTypeNames {
		if normalizeLabel(n) == want {
			return FilterType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFilterType, s)
}

// FilterStage is a resonant biquad whose coefficients are redesigned every
// block while the per-channel delay registers persist across blocks.
type FilterStage struct {
	sampleRate float64
	cutoff     float64
	q          float64
	mode       FilterType
	biquad     *dsp.Biquad
}

// NewFilterStage creates a low-pass stage for one channel at 44.1 kHz.
func NewFilterStage() *FilterStage {
	f := &FilterStage{
		cutoff: MaxCutoffHz,
		q:      MinFilterQ,
		biquad: dsp.NewBiquad(1),
	}
	f.Prepare(44100, 1)
	return f
}

// Prepare sizes the delay registers for channels and clears them.
func (f *FilterStage) Prepare(sampleRate float64, channels int) {
	if !(sampleRate > 0) {
		sampleRate = 44100
	}
	f.sampleRate = sampleRate
	f.biquad.SetChannels(channels)
	f.redesign()
}

// Reset clears the delay registers.
func (f *FilterStage) Reset() {
	f.biquad.Reset()
}

// SetParams stores the cutoff, Q and mode used by the next Process call.
// Out-of-range values are clamped; an unknown mode keeps the previous one.
func (f *FilterStage) SetParams(cutoffHz, q float64, mode FilterType) {
	if mode.Validate() == nil {
		f.mode = mode
	}
	if isFinite(cutoffHz) {
		f.cutoff = cutoffHz
	}
	if isFinite(q) {
		f.q = q
	}
	f.redesign()
}

// Cutoff returns the clamped cutoff used for the current coefficients.
func (f *FilterStage) Cutoff() float64 {
	return clamp64(f.cutoff, minFilterCutoff, f.sampleRate*maxCutoffRatio)
}

// Q returns the clamped quality factor used for the current coefficients.
func (f *FilterStage) Q() float64 {
	return clamp64(f.q, MinFilterQ, MaxFilterQ)
}

// Mode returns the active filter type.
func (f *FilterStage) Mode() FilterType { return f.mode }

// Coefficients returns the active transfer function.
func (f *FilterStage) Coefficients() biquad.Coefficients {
	return f.biquad.Coefficients()
}

// Process filters each channel of block in place.
func (f *FilterStage) Process(block [][]float32) {
	for ch, buf := range block {
		if ch >= f.biquad.Channels() {
			return
		}
		f.biquad.Process(buf, ch)
	}
}

func (f *FilterStage) redesign() {
	cutoff, q := f.Cutoff(), f.Q()
	var c biquad.Coefficients
	switch f.mode {
	case BandPass:
		c = dsp.BandpassPeak(cutoff, q, f.sampleRate)
	case HighPass:
		c = design.Highpass(cutoff, q, f.sampleRate)
	default:
		c = design.Lowpass(cutoff, q, f.sampleRate)
	}
	f.biquad.SetCoefficients(c)
}
