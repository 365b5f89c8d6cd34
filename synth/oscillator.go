package synth

import "math"

// Oscillator is a phase-accumulator oscillator. Frequency, amplitude and
// waveform are block-rate controls; the phase advances once per sample.
type Oscillator struct {
	sampleRate float64
	phase      float64 // [0, 2π)
	phaseInc   float64
	frequency  float64
	amplitude  float32
	waveform   Waveform
}

// NewOscillator creates a sine oscillator at 440 Hz with zero amplitude.
func NewOscillator(sampleRate float64) *Oscillator {
	o := &Oscillator{frequency: 440}
	o.Prepare(sampleRate)
	return o
}

// Prepare sets the sample rate and resets the phase.
// It must be called again whenever the sample rate changes.
func (o *Oscillator) Prepare(sampleRate float64) {
	if !(sampleRate > 0) {
		sampleRate = 44100
	}
	o.sampleRate = sampleRate
	o.phase = 0
	o.SetFrequency(o.frequency)
}

// Reset rewinds the phase to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// SetFrequency sets the pitch in Hz, clamped to [0, Nyquist).
func (o *Oscillator) SetFrequency(hz float64) {
	if !isFinite(hz) || hz < 0 {
		hz = 0
	}
	nyquist := o.sampleRate / 2
	if hz >= nyquist {
		hz = math.Nextafter(nyquist, 0)
	}
	o.frequency = hz
	o.phaseInc = twoPi * hz / o.sampleRate
}

// Frequency returns the current pitch in Hz.
func (o *Oscillator) Frequency() float64 { return o.frequency }

// SetAmplitude sets the linear output gain.
func (o *Oscillator) SetAmplitude(a float32) {
	if !isFinite(float64(a)) {
		a = 0
	}
	o.amplitude = a
}

// Amplitude returns the linear output gain.
func (o *Oscillator) Amplitude() float32 { return o.amplitude }

// SetWaveform selects the shape; unsupported values are rejected and the
// previous shape is kept.
func (o *Oscillator) SetWaveform(w Waveform) error {
	if err := w.Validate(); err != nil {
		return err
	}
	o.waveform = w
	return nil
}

// Waveform returns the active shape.
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// Phase returns the accumulator value in [0, 2π).
func (o *Oscillator) Phase() float64 { return o.phase }

// Tick returns the current sample and advances the phase.
func (o *Oscillator) Tick() float32 {
	s := Sample(o.waveform, o.phase, o.amplitude)
	o.phase += o.phaseInc
	if o.phase >= twoPi {
		o.phase -= twoPi
		if o.phase >= twoPi {
			o.phase = math.Mod(o.phase, twoPi)
		}
	}
	return s
}

// Process fills dst with consecutive samples.
func (o *Oscillator) Process(dst []float32) {
	for i := range dst {
		dst[i] = o.Tick()
	}
}
