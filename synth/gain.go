package synth

// GainStage scales a buffer by a scalar.
type GainStage struct {
	gain float32
}

// NewGainStage creates a stage with the given linear gain.
func NewGainStage(gain float32) *GainStage {
	return &GainStage{gain: gain}
}

// SetGain sets the linear gain; negative or non-finite values mute.
func (g *GainStage) SetGain(gain float32) {
	if !isFinite(float64(gain)) || gain < 0 {
		gain = 0
	}
	g.gain = gain
}

// Gain returns the linear gain.
func (g *GainStage) Gain() float32 { return g.gain }

// Process multiplies buf in place.
func (g *GainStage) Process(buf []float32) {
	if g.gain == 1 {
		return
	}
	for i := range buf {
		buf[i] *= g.gain
	}
}
