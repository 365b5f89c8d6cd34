package synth

import (
	"errors"
	"sync"
	"testing"
)

func TestDefaultStoreDeclaresLayout(t *testing.T) {
	s := NewDefaultStore(VoicingFull)

	tests := []struct {
		id   string
		want float64
	}{
		{ParamWaveform, float64(WaveSine)},
		{ParamCutoff, DefaultCutoffHz},
		{ParamResonance, DefaultQ},
		{ParamFilterType, float64(LowPass)},
		{ParamGateLevel, DefaultGate},
		{ParamOutputGain, 1},
	}
	for _, tt := range tests {
		got, ok := s.Get(tt.id)
		if !ok {
			t.Fatalf("parameter %q not declared", tt.id)
		}
		if got != tt.want {
			t.Errorf("default of %q = %g, want %g", tt.id, got, tt.want)
		}
	}

	d, _ := s.Def(ParamWaveform)
	if len(d.Choices) != 6 || d.Choices[3] != "Triangle" {
		t.Fatalf("unexpected waveform choices: %v", d.Choices)
	}
}

func TestWarmVoicingLimitsCutoff(t *testing.T) {
	s := NewDefaultStore(VoicingWarm)
	d, _ := s.Def(ParamCutoff)
	if d.Max != WarmMaxCutoffHz {
		t.Fatalf("warm cutoff max = %g, want %g", d.Max, WarmMaxCutoffHz)
	}
	if err := s.Set(ParamCutoff, 5000); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected out-of-range for 5 kHz in warm voicing, got %v", err)
	}
}

func TestSetThenGetReturnsValue(t *testing.T) {
	s := NewDefaultStore(VoicingFull)
	mustSet(t, s, ParamCutoff, 1234.5)
	if got, _ := s.Get(ParamCutoff); got != 1234.5 {
		t.Fatalf("Get after Set = %g, want 1234.5", got)
	}
	h, ok := s.Lookup(ParamCutoff)
	if !ok || s.Load(h) != 1234.5 {
		t.Fatalf("Load via handle = %g, want 1234.5", s.Load(h))
	}
}

func TestSetRejectsResonanceBelowMinimum(t *testing.T) {
	s := NewDefaultStore(VoicingFull)
	err := s.Set(ParamResonance, 0.05)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	var re *RangeError
	if !errors.As(err, &re) || re.ID != ParamResonance || re.Min != MinResonance {
		t.Fatalf("expected RangeError for resonance, got %#v", err)
	}
	if got, _ := s.Get(ParamResonance); got != DefaultQ {
		t.Fatalf("rejected write leaked into store: %g", got)
	}
}

func TestSetRejectsInvalidChoices(t *testing.T) {
	s := NewDefaultStore(VoicingFull)
	for _, v := range []float64{-1, 6, 1.5} {
		if err := s.Set(ParamWaveform, v); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Set(waveform, %g): expected ErrOutOfRange, got %v", v, err)
		}
	}
	if err := s.Set("nope", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestSetChoiceByLabel(t *testing.T) {
	s := NewDefaultStore(VoicingFull)
	if err := s.SetChoice(ParamFilterType, "band pass"); err != nil {
		t.Fatalf("SetChoice: %v", err)
	}
	if got, _ := s.Choice(ParamFilterType); got != "Band-Pass" {
		t.Fatalf("Choice = %q, want Band-Pass", got)
	}
	if err := s.SetChoice(ParamWaveform, "ponky"); err != nil {
		t.Fatalf("SetChoice: %v", err)
	}
	if got, _ := s.Get(ParamWaveform); got != float64(WavePonky) {
		t.Fatalf("waveform index = %g, want %d", got, WavePonky)
	}
	if err := s.SetChoice(ParamWaveform, "noise"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for unknown label, got %v", err)
	}
	if err := s.SetChoice(ParamCutoff, "x"); err == nil {
		t.Fatalf("expected error for SetChoice on a float parameter")
	}
}

func TestNewStoreRejectsBadDeclarations(t *testing.T) {
	tests := []struct {
		name     string
		defs     []ParamDef
		outRange bool
	}{
		{"empty id", []ParamDef{FloatParam("", "x", 0, 1, 0)}, false},
		{"inverted range", []ParamDef{FloatParam("a", "a", 1, 0, 0.5)}, false},
		{"default outside range", []ParamDef{FloatParam("q", "Q", 0.1, 1, 2)}, true},
		{"no choices", []ParamDef{ChoiceParam("w", "w", nil, 0)}, false},
		{"choice default outside set", []ParamDef{ChoiceParam("w", "w", []string{"a"}, 3)}, true},
		{"duplicate", []ParamDef{FloatParam("a", "a", 0, 1, 0), FloatParam("a", "a", 0, 1, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(tt.defs...)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if got := errors.Is(err, ErrOutOfRange); got != tt.outRange {
				t.Fatalf("errors.Is(ErrOutOfRange) = %v, want %v (err=%v)", got, tt.outRange, err)
			}
		})
	}
}

func TestParseVoicing(t *testing.T) {
	if v, err := ParseVoicing("Warm"); err != nil || v != VoicingWarm {
		t.Fatalf("ParseVoicing(Warm) = %v, %v", v, err)
	}
	if v, err := ParseVoicing(""); err != nil || v != VoicingFull {
		t.Fatalf("ParseVoicing(\"\") = %v, %v", v, err)
	}
	if _, err := ParseVoicing("bright"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStoreConcurrentReadWrite(t *testing.T) {
	s := NewDefaultStore(VoicingFull)
	h, _ := s.Lookup(ParamCutoff)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			_ = s.Set(ParamCutoff, MinCutoffHz+float64(i%1000))
		}
	}()
	for i := 0; i < 2000; i++ {
		v := s.Load(h)
		if v < MinCutoffHz || v > MaxCutoffHz {
			t.Fatalf("observed out-of-range value %g", v)
		}
	}
	wg.Wait()
}

func TestResetToDefaults(t *testing.T) {
	s := NewDefaultStore(VoicingFull)
	mustSet(t, s, ParamOutputGain, 0.25)
	s.ResetToDefaults()
	if got, _ := s.Get(ParamOutputGain); got != 1 {
		t.Fatalf("output gain after reset = %g, want 1", got)
	}
}
