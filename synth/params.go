package synth

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

// Parameter IDs read by the processor.
const (
	ParamWaveform   = "waveformType"
	ParamCutoff     = "cutoffFrequencyHz"
	ParamResonance  = "resonanceQ"
	ParamFilterType = "filterType"
	ParamGateLevel  = "gateLevel"
	ParamOutputGain = "outputGain"
)

// Declared bounds of the built-in parameter set.
const (
	MinCutoffHz     = 50.0
	MaxCutoffHz     = 20000.0
	WarmMaxCutoffHz = 1500.0
	DefaultCutoffHz = 500.0
	MinResonance    = 0.1
	MaxResonance    = 1.0
	DefaultQ        = 0.5
	DefaultGate     = 0.1
)

// Voicing selects the cutoff range of the default parameter set.
type Voicing int

const (
	// VoicingFull sweeps the cutoff over 50 Hz to 20 kHz.
	VoicingFull Voicing = iota
	// VoicingWarm limits the cutoff to 50 Hz to 1.5 kHz.
	VoicingWarm
)

func (v Voicing) String() string {
	switch v {
	case VoicingFull:
		return "full"
	case VoicingWarm:
		return "warm"
	default:
		return fmt.Sprintf("Voicing(%d)", int(v))
	}
}

// ParseVoicing accepts "full" or "warm" (case-insensitive).
func ParseVoicing(s string) (Voicing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return VoicingFull, nil
	case "warm":
		return VoicingWarm, nil
	}
	return 0, configError("voicing", fmt.Sprintf("unknown voicing %q (valid: full, warm)", s), nil)
}

// ParamKind distinguishes continuous ranges from enumerated choices.
type ParamKind int

const (
	KindFloat ParamKind = iota
	KindChoice
)

// ParamDef declares one addressable parameter.
type ParamDef struct {
	ID      string
	Name    string
	Kind    ParamKind
	Min     float64
	Max     float64
	Default float64
	Choices []string
}

// FloatParam declares a continuous parameter.
func FloatParam(id, name string, min, max, def float64) ParamDef {
	return ParamDef{ID: id, Name: name, Kind: KindFloat, Min: min, Max: max, Default: def}
}

// ChoiceParam declares an enumerated parameter; the value is the choice index.
func ChoiceParam(id, name string, choices []string, def int) ParamDef {
	return ParamDef{
		ID:      id,
		Name:    name,
		Kind:    KindChoice,
		Min:     0,
		Max:     float64(len(choices) - 1),
		Default: float64(def),
		Choices: append([]string(nil), choices...),
	}
}

// Clamp limits v to the declared range. Choice values are also rounded.
func (d ParamDef) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return d.Default
	}
	if d.Kind == KindChoice {
		v = math.Round(v)
	}
	return clamp64(v, d.Min, d.Max)
}

func (d ParamDef) validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return configError("parameter", "empty id", nil)
	}
	switch d.Kind {
	case KindFloat:
		if math.IsNaN(d.Min) || math.IsNaN(d.Max) || d.Min >= d.Max {
			return configError(d.ID, fmt.Sprintf("invalid range [%g, %g]", d.Min, d.Max), nil)
		}
	case KindChoice:
		if len(d.Choices) == 0 {
			return configError(d.ID, "no choices declared", nil)
		}
	default:
		return configError(d.ID, fmt.Sprintf("unknown kind %d", d.Kind), nil)
	}
	if err := d.check(d.Default); err != nil {
		return configError(d.ID, "default outside declaration", err)
	}
	return nil
}

func (d ParamDef) check(v float64) error {
	if math.IsNaN(v) || v < d.Min || v > d.Max {
		return &RangeError{ID: d.ID, Value: v, Min: d.Min, Max: d.Max}
	}
	if d.Kind == KindChoice && v != math.Trunc(v) {
		return &RangeError{ID: d.ID, Value: v, Min: d.Min, Max: d.Max}
	}
	return nil
}

// Handle is a resolved parameter index for O(1) reads.
type Handle int

// Store is a registry of named parameters. The set of parameters is fixed at
// construction; values are published through atomic slots so Load and Get
// never block or allocate and may run on the audio thread while Set runs on
// a control thread.
type Store struct {
	defs   []ParamDef
	index  map[string]Handle
	values []atomic.Uint64
}

// NewStore validates the declarations and initialises every value to its default.
func NewStore(defs ...ParamDef) (*Store, error) {
	s := &Store{
		defs:   make([]ParamDef, 0, len(defs)),
		index:  make(map[string]Handle, len(defs)),
		values: make([]atomic.Uint64, len(defs)),
	}
	for _, d := range defs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[d.ID]; dup {
			return nil, configError(d.ID, "duplicate parameter id", nil)
		}
		h := Handle(len(s.defs))
		s.index[d.ID] = h
		s.defs = append(s.defs, d)
		s.values[h].Store(math.Float64bits(d.Default))
	}
	return s, nil
}

// DefaultParamDefs returns the synthesizer's parameter layout.
func DefaultParamDefs(v Voicing) []ParamDef {
	maxCutoff := MaxCutoffHz
	if v == VoicingWarm {
		maxCutoff = WarmMaxCutoffHz
	}
	return []ParamDef{
		ChoiceParam(ParamWaveform, "Osc 1 Wave Type", WaveformNames(), int(WaveSine)),
		FloatParam(ParamCutoff, "CutOff Frequency", MinCutoffHz, maxCutoff, DefaultCutoffHz),
		FloatParam(ParamResonance, "Q Factor", MinResonance, MaxResonance, DefaultQ),
		ChoiceParam(ParamFilterType, "Filter Type", FilterTypeNames(), int(LowPass)),
		FloatParam(ParamGateLevel, "Gate Level", 0, 1, DefaultGate),
		FloatParam(ParamOutputGain, "Output Gain", 0, 2, 1),
	}
}

// NewDefaultStore builds a store with DefaultParamDefs.
func NewDefaultStore(v Voicing) *Store {
	s, err := NewStore(DefaultParamDefs(v)...)
	if err != nil {
		panic(err) // built-in layout is static
	}
	return s
}

// Lookup resolves id to a handle.
func (s *Store) Lookup(id string) (Handle, bool) {
	h, ok := s.index[id]
	return h, ok
}

// Load reads the current value behind h.
func (s *Store) Load(h Handle) float64 {
	return math.Float64frombits(s.values[h].Load())
}

// Get reads the current value of id.
func (s *Store) Get(id string) (float64, bool) {
	h, ok := s.index[id]
	if !ok {
		return 0, false
	}
	return s.Load(h), true
}

// Set validates v against the declaration of id and publishes it.
// Running blocks pick the value up at their next boundary.
func (s *Store) Set(id string, v float64) error {
	h, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, id)
	}
	if err := s.defs[h].check(v); err != nil {
		return err
	}
	s.values[h].Store(math.Float64bits(v))
	return nil
}

// SetChoice selects a choice by label (case-insensitive).
func (s *Store) SetChoice(id, label string) error {
	h, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, id)
	}
	d := s.defs[h]
	if d.Kind != KindChoice {
		return fmt.Errorf("parameter %q is not a choice", id)
	}
	want := normalizeLabel(label)
	for i, c := range d.Choices {
		if normalizeLabel(c) == want {
			s.values[h].Store(math.Float64bits(float64(i)))
			return nil
		}
	}
	return fmt.Errorf("%w: parameter %q has no choice %q (valid: %s)",
		ErrOutOfRange, id, label, strings.Join(d.Choices, ", "))
}

// Choice returns the label of the current choice of id.
func (s *Store) Choice(id string) (string, bool) {
	h, ok := s.index[id]
	if !ok || s.defs[h].Kind != KindChoice {
		return "", false
	}
	d := s.defs[h]
	return d.Choices[int(d.Clamp(s.Load(h)))], true
}

// Def returns the declaration of id.
func (s *Store) Def(id string) (ParamDef, bool) {
	h, ok := s.index[id]
	if !ok {
		return ParamDef{}, false
	}
	return s.defs[h], true
}

// Defs returns all declarations in registration order.
func (s *Store) Defs() []ParamDef {
	return append([]ParamDef(nil), s.defs...)
}

// ResetToDefaults publishes every declared default.
func (s *Store) ResetToDefaults() {
	for i, d := range s.defs {
		s.values[i].Store(math.Float64bits(d.Default))
	}
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}
