package synth

import (
	"errors"
	"math"
	"testing"
)

func TestSampleBasicShapes(t *testing.T) {
	tests := []struct {
		name  string
		w     Waveform
		phase float64
		amp   float32
		want  float64
	}{
		{"sine quarter", WaveSine, math.Pi / 2, 0.5, 0.5},
		{"sine zero", WaveSine, 0, 1, 0},
		{"saw half", WaveSaw, math.Pi / 2, 1, 0.5},
		{"saw wraps negative", WaveSaw, 3 * math.Pi / 2, 1, -0.5},
		{"square positive", WaveSquare, 1, 0.3, 0.3},
		{"square negative", WaveSquare, 4, 0.3, -0.3},
		{"square at zero", WaveSquare, 0, 1, 1},
		{"triangle ramp", WaveTriangle, 1, 1, 1 + rampDelta},
		{"triangle ramp negative", WaveTriangle, twoPi - 1, 1, -1 - rampDelta},
		{"pinky", WavePinky, 1, 1, 5 * math.Sin(1) * math.Cos(1) * math.Sin(1)},
		{"ponky", WavePonky, 1, 1, math.Cos(5) * (1 + rampDelta) / 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float64(Sample(tt.w, tt.phase, tt.amp))
			if math.Abs(got-tt.want) > 1e-5 {
				t.Fatalf("Sample = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSampleZeroAmplitudeIsSilent(t *testing.T) {
	for w := WaveSine; w < numWaveforms; w++ {
		for _, ph := range []float64{0, 0.3, 2, 5.5} {
			if got := Sample(w, ph, 0); got != 0 {
				t.Fatalf("%s at phase %f with amp 0 = %f", w, ph, got)
			}
		}
	}
}

func TestSamplePanicsOnInvalidWaveform(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidWaveform) {
			t.Fatalf("expected ErrInvalidWaveform panic, got %v", r)
		}
	}()
	Sample(Waveform(42), 0, 1)
}

func TestSampleCheckedReportsInvalidWaveform(t *testing.T) {
	for _, w := range []Waveform{-1, numWaveforms, 42} {
		got, err := SampleChecked(w, 0.5, 1)
		if !errors.Is(err, ErrInvalidWaveform) {
			t.Fatalf("SampleChecked(%d) error = %v, want ErrInvalidWaveform", int(w), err)
		}
		if got != 0 {
			t.Fatalf("SampleChecked(%d) = %f, want 0", int(w), got)
		}
	}
	for w := WaveSine; w < numWaveforms; w++ {
		got, err := SampleChecked(w, 1.2, 0.8)
		if err != nil {
			t.Fatalf("SampleChecked(%s): %v", w, err)
		}
		if want := Sample(w, 1.2, 0.8); got != want {
			t.Fatalf("SampleChecked(%s) = %f, Sample = %f", w, got, want)
		}
	}
}

func TestWaveformValidateAndParse(t *testing.T) {
	if err := Waveform(-1).Validate(); !errors.Is(err, ErrInvalidWaveform) {
		t.Fatalf("expected ErrInvalidWaveform, got %v", err)
	}
	if err := WavePonky.Validate(); err != nil {
		t.Fatalf("Ponky should be valid: %v", err)
	}
	w, err := ParseWaveform("square")
	if err != nil || w != WaveSquare {
		t.Fatalf("ParseWaveform(square) = %v, %v", w, err)
	}
	if _, err := ParseWaveform("noise"); !errors.Is(err, ErrInvalidWaveform) {
		t.Fatalf("expected ErrInvalidWaveform, got %v", err)
	}
	if WaveSaw.String() != "Saw" || Waveform(9).String() != "Waveform(9)" {
		t.Fatalf("unexpected String output")
	}
}

func TestWrapSigned(t *testing.T) {
	for _, x := range []float64{-10, -math.Pi, -1, 0, 3, math.Pi, 7, 100} {
		got := wrapSigned(x)
		if got < -math.Pi || got >= math.Pi {
			t.Fatalf("wrapSigned(%f) = %f outside [-π, π)", x, got)
		}
		if math.Abs(math.Sin(got)-math.Sin(x)) > 1e-9 {
			t.Fatalf("wrapSigned(%f) changed the angle: %f", x, got)
		}
	}
}
