package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// RMS returns the root mean square of x.
func RMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, s := range x {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Peak returns the largest absolute sample.
func Peak(x []float32) float64 {
	var p float64
	for _, s := range x {
		if a := math.Abs(float64(s)); a > p {
			p = a
		}
	}
	return p
}

// MagnitudeAt returns the amplitude of the freq component of x, estimated
// with a Hann-windowed single-frequency DFT. A full-scale sine reads ~1.
func MagnitudeAt(x []float32, sampleRate int, freq float64) float64 {
	n := len(x)
	if n == 0 || sampleRate <= 0 {
		return 0
	}
	w := 2 * math.Pi * freq / float64(sampleRate)
	var re, im, wsum float64
	for i, s := range x {
		win := hann(i, n)
		wsum += win
		v := float64(s) * win
		re += v * math.Cos(w*float64(i))
		im -= v * math.Sin(w*float64(i))
	}
	if wsum == 0 {
		return 0
	}
	return 2 * math.Hypot(re, im) / wsum
}

// Spectrum is a one-sided magnitude spectrum.
type Spectrum struct {
	SampleRate int
	Size       int // FFT size
	Magnitudes []float64
}

// BinHz returns the bin spacing in Hz.
func (s Spectrum) BinHz() float64 {
	return float64(s.SampleRate) / float64(s.Size)
}

// ComputeSpectrum windows x with a Hann window, zero-pads it to a power of
// two and returns its magnitude spectrum.
func ComputeSpectrum(x []float64, sampleRate int) (Spectrum, error) {
	if len(x) < 2 {
		return Spectrum{}, fmt.Errorf("spectrum needs at least 2 samples, got %d", len(x))
	}
	if sampleRate <= 0 {
		return Spectrum{}, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	size := nextPow2(len(x))
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return Spectrum{}, fmt.Errorf("fft plan: %w", err)
	}

	buf := make([]float64, size)
	var wsum float64
	for i, v := range x {
		win := hann(i, len(x))
		wsum += win
		buf[i] = v * win
	}
	spec := make([]complex128, size/2+1)
	plan.Forward(spec, buf)

	mags := make([]float64, len(spec))
	for k, c := range spec {
		mags[k] = 2 * cmplx.Abs(c) / wsum
	}
	return Spectrum{SampleRate: sampleRate, Size: size, Magnitudes: mags}, nil
}

// PeakFrequency returns the frequency of the strongest component between
// minHz and maxHz, refined by parabolic interpolation.
func PeakFrequency(x []float32, sampleRate int, minHz, maxHz float64) (float64, error) {
	spec, err := ComputeSpectrum(toFloat64(x), sampleRate)
	if err != nil {
		return 0, err
	}
	binHz := spec.BinHz()
	lo := int(math.Ceil(minHz / binHz))
	hi := int(math.Floor(maxHz / binHz))
	if lo < 1 {
		lo = 1
	}
	if hi > len(spec.Magnitudes)-2 {
		hi = len(spec.Magnitudes) - 2
	}
	if lo > hi {
		return 0, fmt.Errorf("empty search band %.1f..%.1f Hz", minHz, maxHz)
	}

	best := lo
	for k := lo + 1; k <= hi; k++ {
		if spec.Magnitudes[k] > spec.Magnitudes[best] {
			best = k
		}
	}
	if spec.Magnitudes[best] == 0 {
		return 0, fmt.Errorf("no energy in %.1f..%.1f Hz", minHz, maxHz)
	}

	a, b, c := spec.Magnitudes[best-1], spec.Magnitudes[best], spec.Magnitudes[best+1]
	offset := 0.0
	if den := a - 2*b + c; den != 0 {
		offset = 0.5 * (a - c) / den
	}
	return (float64(best) + offset) * binHz, nil
}

func hann(i, n int) float64 {
	if n < 2 {
		return 1
	}
	return 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
