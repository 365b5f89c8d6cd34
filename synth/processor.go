package synth

import "fmt"

// DefaultMaxEvents is the outgoing event capacity when ProcessSpec leaves it unset.
const DefaultMaxEvents = 256

// ProcessSpec describes the stream negotiated with the host.
type ProcessSpec struct {
	SampleRate    float64
	MaxBlockSize  int
	Channels      int  // output channels
	InputChannels int  // outputs at or beyond this index are silence-padded first
	MaxEvents     int  // capacity of the re-emitted event buffer
	MonoOutput    bool // write the voice to channel 0 only
}

// SupportsLayout reports whether the processor can drive the given number of
// output channels. Only mono and stereo outputs are supported.
func SupportsLayout(outputs int) bool {
	return outputs == 1 || outputs == 2
}

func (s ProcessSpec) validate() error {
	if !(s.SampleRate > 0) || !isFinite(s.SampleRate) {
		return configError("sample rate", fmt.Sprintf("must be > 0, got %g", s.SampleRate), nil)
	}
	if s.MaxBlockSize <= 0 {
		return configError("max block size", fmt.Sprintf("must be > 0, got %d", s.MaxBlockSize), nil)
	}
	if !SupportsLayout(s.Channels) {
		return configError("channels", fmt.Sprintf("unsupported output layout with %d channels (mono or stereo only)", s.Channels), nil)
	}
	if s.InputChannels < 0 {
		return configError("input channels", fmt.Sprintf("must be >= 0, got %d", s.InputChannels), nil)
	}
	if s.MaxEvents < 0 {
		return configError("max events", fmt.Sprintf("must be >= 0, got %d", s.MaxEvents), nil)
	}
	return nil
}

// Snapshot is the set of parameter values a block runs with.
type Snapshot struct {
	Waveform   Waveform
	CutoffHz   float64
	Q          float64
	FilterType FilterType
	GateLevel  float32
	OutputGain float32
}

type paramSlot struct {
	handle Handle
	def    ParamDef
	ok     bool
}

func (s paramSlot) read(st *Store, fallback float64) float64 {
	if !s.ok {
		return fallback
	}
	return s.def.Clamp(st.Load(s.handle))
}

// Processor runs the signal chain once per audio block:
// note events -> gate -> oscillator -> gain -> filter.
// Prepare and Process must be called from the same (audio) goroutine;
// parameter writes go through the Store from any goroutine.
type Processor struct {
	store *Store

	waveform   paramSlot
	cutoff     paramSlot
	resonance  paramSlot
	filterType paramSlot
	gateLevel  paramSlot
	outputGain paramSlot

	osc    *Oscillator
	gain   *GainStage
	filter *FilterStage
	gate   *NoteGate

	spec     ProcessSpec
	prepared bool
	snapshot Snapshot

	mono      []float32
	views     [][]float32
	outEvents []NoteEvent
}

// NewProcessor binds a processor to store. A nil store gets the default
// full-range layout. Missing required parameters or choice sets with
// unsupported entries fail here rather than inside Process.
func NewProcessor(store *Store) (*Processor, error) {
	if store == nil {
		store = NewDefaultStore(VoicingFull)
	}
	p := &Processor{
		store:  store,
		osc:    NewOscillator(44100),
		gain:   NewGainStage(1),
		filter: NewFilterStage(),
		gate:   NewNoteGate(DefaultGate),
	}

	var err error
	if p.waveform, err = bind(store, ParamWaveform, true); err != nil {
		return nil, err
	}
	if p.cutoff, err = bind(store, ParamCutoff, true); err != nil {
		return nil, err
	}
	if p.resonance, err = bind(store, ParamResonance, true); err != nil {
		return nil, err
	}
	if p.filterType, err = bind(store, ParamFilterType, false); err != nil {
		return nil, err
	}
	if p.gateLevel, err = bind(store, ParamGateLevel, false); err != nil {
		return nil, err
	}
	if p.outputGain, err = bind(store, ParamOutputGain, false); err != nil {
		return nil, err
	}

	if d := p.waveform.def; d.Kind != KindChoice || len(d.Choices) > int(numWaveforms) {
		return nil, configError(ParamWaveform, fmt.Sprintf("%d choices declared", len(d.Choices)),
			Waveform(len(d.Choices)-1).Validate())
	}
	if p.filterType.ok {
		if d := p.filterType.def; d.Kind != KindChoice || len(d.Choices) > int(numFilterTypes) {
			return nil, configError(ParamFilterType, fmt.Sprintf("%d choices declared", len(d.Choices)),
				FilterType(len(d.Choices)-1).Validate())
		}
	}
	return p, nil
}

func bind(store *Store, id string, required bool) (paramSlot, error) {
	h, ok := store.Lookup(id)
	if !ok {
		if required {
			return paramSlot{}, configError(id, "required parameter not declared", ErrUnknownParameter)
		}
		return paramSlot{}, nil
	}
	def, _ := store.Def(id)
	return paramSlot{handle: h, def: def, ok: true}, nil
}

// Store returns the parameter store the processor reads.
func (p *Processor) Store() *Store { return p.store }

// Spec returns the prepared stream description.
func (p *Processor) Spec() ProcessSpec { return p.spec }

// Prepared reports whether Prepare succeeded.
func (p *Processor) Prepared() bool { return p.prepared }

// Prepare allocates every buffer the audio path needs and resets all state.
// Call it before streaming and again on any format change.
func (p *Processor) Prepare(spec ProcessSpec) error {
	if err := spec.validate(); err != nil {
		p.prepared = false
		return err
	}
	if spec.MaxEvents == 0 {
		spec.MaxEvents = DefaultMaxEvents
	}
	if spec.InputChannels > spec.Channels {
		spec.InputChannels = spec.Channels
	}
	p.spec = spec

	p.mono = make([]float32, spec.MaxBlockSize)
	p.views = make([][]float32, spec.Channels)
	p.outEvents = make([]NoteEvent, 0, spec.MaxEvents)

	p.osc.Prepare(spec.SampleRate)
	p.filter.Prepare(spec.SampleRate, spec.Channels)
	p.gate.Reset()
	p.prepared = true
	return nil
}

// Reset clears oscillator phase, filter memory and the gate.
func (p *Processor) Reset() {
	p.osc.Reset()
	p.filter.Reset()
	p.gate.Reset()
}

// GateState returns the gate output after the last block.
func (p *Processor) GateState() GateState { return p.gate.State() }

// LastSnapshot returns the parameter values used by the last block.
func (p *Processor) LastSnapshot() Snapshot { return p.snapshot }

// Process renders one block in place. block holds one slice per output
// channel; the shortest slice sets the frame count. events are handled in
// frame order and returned, unmodified and sorted, in a buffer owned by the
// processor that stays valid until the next call.
//
// Process never fails: out-of-range parameters are clamped, and an
// unprepared processor outputs silence.
func (p *Processor) Process(block [][]float32, events []NoteEvent) []NoteEvent {
	out := append(p.outEvents[:0], events...)
	sortByFrame(out)
	p.outEvents = out

	frames := blockFrames(block)
	if !p.prepared {
		for _, buf := range block {
			clearBuffer(buf[:frames])
		}
		return out
	}

	for ch := p.spec.InputChannels; ch < len(block); ch++ {
		clearBuffer(block[ch][:frames])
	}

	p.readSnapshot()
	p.gate.SetLevel(p.snapshot.GateLevel)
	for _, ev := range out {
		p.gate.Handle(ev)
	}

	st := p.gate.State()
	p.osc.SetFrequency(float64(st.FrequencyHz))
	p.osc.SetAmplitude(st.Amplitude)
	if err := p.osc.SetWaveform(p.snapshot.Waveform); err != nil {
		// unreachable: the snapshot index is clamped to the validated choice set
		p.snapshot.Waveform = p.osc.Waveform()
	}
	p.gain.SetGain(p.snapshot.OutputGain)
	p.filter.SetParams(p.snapshot.CutoffHz, p.snapshot.Q, p.snapshot.FilterType)

	active := len(block)
	if active > p.spec.Channels {
		active = p.spec.Channels
	}
	filtered := active
	if p.spec.MonoOutput && filtered > 1 {
		filtered = 1
	}

	for start := 0; start < frames; start += p.spec.MaxBlockSize {
		n := frames - start
		if n > p.spec.MaxBlockSize {
			n = p.spec.MaxBlockSize
		}
		mono := p.mono[:n]
		p.osc.Process(mono)
		p.gain.Process(mono)

		for ch := 0; ch < active; ch++ {
			dst := block[ch][start : start+n]
			if ch < filtered {
				copy(dst, mono)
			} else {
				clearBuffer(dst)
			}
			p.views[ch] = dst
		}
		p.filter.Process(p.views[:filtered])
	}
	return out
}

func (p *Processor) readSnapshot() {
	s := p.store
	p.snapshot = Snapshot{
		Waveform:   Waveform(p.waveform.read(s, float64(WaveSine))),
		CutoffHz:   p.cutoff.read(s, DefaultCutoffHz),
		Q:          p.resonance.read(s, DefaultQ),
		FilterType: FilterType(p.filterType.read(s, float64(LowPass))),
		GateLevel:  float32(p.gateLevel.read(s, DefaultGate)),
		OutputGain: float32(p.outputGain.read(s, 1)),
	}
}

func blockFrames(block [][]float32) int {
	if len(block) == 0 {
		return 0
	}
	frames := len(block[0])
	for _, buf := range block[1:] {
		if len(buf) < frames {
			frames = len(buf)
		}
	}
	return frames
}
