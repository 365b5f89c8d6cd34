// Package wavio reads and writes the WAV files used by the command-line tools.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadMono decodes path and averages its channels. It returns the samples
// and the file's sample rate.
func ReadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// Resample converts in from fromRate to toRate. Equal rates return in unchanged.
func Resample(in []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// ResampleInterleaved resamples every channel of interleaved samples.
func ResampleInterleaved(samples []float32, channels, fromRate, toRate int) ([]float32, error) {
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	if fromRate == toRate {
		return samples, nil
	}
	planes := Deinterleave(samples, channels)
	out := make([][]float64, channels)
	for c, plane := range planes {
		r, err := Resample(plane, fromRate, toRate)
		if err != nil {
			return nil, err
		}
		out[c] = r
	}
	return Interleave(out), nil
}

// Deinterleave splits interleaved float32 samples into float64 planes.
func Deinterleave(samples []float32, channels int) [][]float64 {
	frames := len(samples) / channels
	planes := make([][]float64, channels)
	for c := range planes {
		planes[c] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			planes[c][i] = float64(samples[i*channels+c])
		}
	}
	return planes
}

// Interleave joins planes into interleaved float32 samples, truncated to
// the shortest plane.
func Interleave(planes [][]float64) []float32 {
	if len(planes) == 0 {
		return nil
	}
	frames := len(planes[0])
	for _, p := range planes[1:] {
		if len(p) < frames {
			frames = len(p)
		}
	}
	ch := len(planes)
	out := make([]float32, frames*ch)
	for i := 0; i < frames; i++ {
		for c := 0; c < ch; c++ {
			out[i*ch+c] = float32(planes[c][i])
		}
	}
	return out
}

// ToMono averages interleaved channels into one float64 signal.
func ToMono(samples []float32, channels int) []float64 {
	if channels < 1 {
		return nil
	}
	n := len(samples) / channels
	out := make([]float64, n)
	inv := 1.0 / float64(channels)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(samples[i*channels+c])
		}
		out[i] = sum * inv
	}
	return out
}

// WriteInterleaved writes 16-bit PCM with the given channel count,
// creating parent directories as needed.
func WriteInterleaved(path string, samples []float32, channels, sampleRate int) error {
	if channels < 1 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	if len(samples)%channels != 0 {
		return fmt.Errorf("%d samples is not a whole number of %d-channel frames", len(samples), channels)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
