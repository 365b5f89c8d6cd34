package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Identity returns pass-through coefficients.
func Identity() biquad.Coefficients {
	return biquad.Coefficients{B0: 1}
}

// Biquad runs one algo-dsp biquad section per channel over float32
// buffers. All sections share one transfer function; their delay registers
// are independent and survive coefficient changes.
type Biquad struct {
	coeffs   biquad.Coefficients
	sections []biquad.Section
}

// NewBiquad creates a pass-through biquad with zeroed state for the given
// channel count.
func NewBiquad(channels int) *Biquad {
	b := &Biquad{coeffs: Identity()}
	b.SetChannels(channels)
	return b
}

// SetChannels resizes the per-channel sections and clears their state.
func (b *Biquad) SetChannels(channels int) {
	if channels < 1 {
		channels = 1
	}
	if cap(b.sections) >= channels {
		b.sections = b.sections[:channels]
	} else {
		b.sections = make([]biquad.Section, channels)
	}
	for i := range b.sections {
		b.sections[i].Coefficients = b.coeffs
	}
	b.Reset()
}

// Channels returns the number of channels with delay state.
func (b *Biquad) Channels() int {
	return len(b.sections)
}

// Coefficients returns the active transfer function.
func (b *Biquad) Coefficients() biquad.Coefficients {
	return b.coeffs
}

// SetCoefficients replaces the transfer function; delay state is kept.
func (b *Biquad) SetCoefficients(c biquad.Coefficients) {
	b.coeffs = c
	for i := range b.sections {
		b.sections[i].Coefficients = c
	}
}

// ProcessSample filters one sample on the given channel.
func (b *Biquad) ProcessSample(input float32, channel int) float32 {
	return float32(b.sections[channel].ProcessSample(float64(input)))
}

// Process filters buf in place on the given channel. Denormal state is
// flushed once per call.
func (b *Biquad) Process(buf []float32, channel int) {
	if channel < 0 || channel >= len(b.sections) {
		return
	}
	s := &b.sections[channel]
	for i, x := range buf {
		buf[i] = float32(s.ProcessSample(float64(x)))
	}
	st := s.State()
	s.SetState([2]float64{dspcore.FlushDenormals(st[0]), dspcore.FlushDenormals(st[1])})
}

// Reset clears the filter state on every channel.
func (b *Biquad) Reset() {
	for i := range b.sections {
		b.sections[i].Reset()
	}
}

// State returns the two transposed direct form II registers of one channel.
func (b *Biquad) State(channel int) [2]float64 {
	return b.sections[channel].State()
}

// BandpassPeak designs a bandpass with 0 dB gain at freq. design.Bandpass
// keeps the skirt gain constant, so its peak sits at q; the numerator is
// divided by q to move the peak to unity.
func BandpassPeak(freq, q, sampleRate float64) biquad.Coefficients {
	if !(q > 0) || math.IsInf(q, 0) {
		q = 1 / math.Sqrt2
	}
	c := design.Bandpass(freq, q, sampleRate)
	c.B0 /= q
	c.B1 /= q
	c.B2 /= q
	return c
}
