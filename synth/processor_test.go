package synth

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-subsynth/analysis"
)

func TestProcessorSilentWithoutNoteOn(t *testing.T) {
	for ft := LowPass; ft < numFilterTypes; ft++ {
		for _, cutoff := range []float64{MinCutoffHz, DefaultCutoffHz, MaxCutoffHz} {
			for _, q := range []float64{MinResonance, DefaultQ, MaxResonance} {
				p := newTestProcessor(t, 44100, 512, 2)
				mustSet(t, p.Store(), ParamCutoff, cutoff)
				mustSet(t, p.Store(), ParamResonance, q)
				mustSet(t, p.Store(), ParamFilterType, float64(ft))

				block := NewBlock(2, 512)
				p.Process(block, nil)
				for ch := range block {
					if !allZero(block[ch]) {
						t.Fatalf("%s cutoff=%g q=%g: channel %d not silent", ft, cutoff, q, ch)
					}
				}
			}
		}
	}
}

func TestProcessorReemitsEventsSorted(t *testing.T) {
	p := newTestProcessor(t, 48000, 256, 1)
	in := []NoteEvent{
		NoteOffEvent(200, 60),
		{Frame: 10, Kind: Aftertouch, Note: 60, Value: 90},
		NoteOnEvent(100, 60, 127),
		{Frame: 10, Kind: PitchWheel, Value: 8192},
	}
	orig := append([]NoteEvent(nil), in...)

	out := p.Process(NewBlock(1, 256), in)
	if len(out) != len(in) {
		t.Fatalf("re-emitted %d events, want %d", len(out), len(in))
	}
	want := []NoteEvent{orig[1], orig[3], orig[2], orig[0]}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, out[i], want[i])
		}
	}
	for i := range in {
		if in[i] != orig[i] {
			t.Fatalf("caller's event slice was modified at %d", i)
		}
	}

	if got := p.Process(NewBlock(1, 256), nil); len(got) != 0 {
		t.Fatalf("empty input re-emitted %d events", len(got))
	}
}

func TestProcessorNoteOnProducesPitch(t *testing.T) {
	const sr = 48000.0
	p := newTestProcessor(t, sr, 512, 1)
	mustSet(t, p.Store(), ParamCutoff, MaxCutoffHz)
	mustSet(t, p.Store(), ParamResonance, 0.7)

	out := renderBlocks(p, 32, 512, []NoteEvent{NoteOnEvent(0, 69, 100)})
	st := p.GateState()
	if !st.Open() || st.Amplitude != DefaultGate {
		t.Fatalf("gate state = %+v, want sounding at %g", st, DefaultGate)
	}

	freq, err := analysis.PeakFrequency(out[4096:], int(sr), 100, 2000)
	if err != nil {
		t.Fatalf("PeakFrequency: %v", err)
	}
	if math.Abs(freq-440) > 3 {
		t.Fatalf("pitch = %.2f Hz, want 440", freq)
	}
	if peak := analysis.Peak(out); peak > DefaultGate*1.1 {
		t.Fatalf("peak %f exceeds the gate level", peak)
	}
	if rms := windowRMS(out[4096:]); math.Abs(rms-DefaultGate/math.Sqrt2) > 0.01 {
		t.Fatalf("rms = %f, want ~%f", rms, DefaultGate/math.Sqrt2)
	}
}

func TestProcessorNoteOffDecaysToSilence(t *testing.T) {
	p := newTestProcessor(t, 44100, 512, 1)
	renderBlocks(p, 4, 512, []NoteEvent{NoteOnEvent(0, 60, 100)})
	out := renderBlocks(p, 8, 512, []NoteEvent{NoteOffEvent(0, 60)})
	if rms := windowRMS(out[len(out)-512:]); rms > 1e-5 {
		t.Fatalf("tail rms after note-off = %g", rms)
	}
	if st := p.GateState(); !st.Open() || st.Amplitude != 0 {
		t.Fatalf("note-off should latch amplitude 0 in the sounding phase, got %+v", st)
	}
}

func TestProcessorMonoOutputSilencesOtherChannels(t *testing.T) {
	p, err := NewProcessor(nil)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	if err := p.Prepare(ProcessSpec{SampleRate: 44100, MaxBlockSize: 256, Channels: 2, MonoOutput: true}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	block := NewBlock(2, 256)
	for ch := range block {
		for i := range block[ch] {
			block[ch][i] = 1
		}
	}
	p.Process(block, []NoteEvent{NoteOnEvent(0, 72, 90)})
	if allZero(block[0]) {
		t.Fatalf("channel 0 should carry the voice")
	}
	if !allZero(block[1]) {
		t.Fatalf("channel 1 should be silent with mono output")
	}
}

func TestProcessorStereoChannelsMatch(t *testing.T) {
	p := newTestProcessor(t, 44100, 256, 2)
	block := NewBlock(2, 256)
	p.Process(block, []NoteEvent{NoteOnEvent(0, 64, 90)})
	for i := range block[0] {
		if block[0][i] != block[1][i] {
			t.Fatalf("frame %d: left %g right %g", i, block[0][i], block[1][i])
		}
	}
}

func TestProcessorUnpreparedOutputsSilence(t *testing.T) {
	p, err := NewProcessor(nil)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	block := NewBlock(1, 64)
	for i := range block[0] {
		block[0][i] = 0.5
	}
	out := p.Process(block, []NoteEvent{NoteOnEvent(0, 60, 100)})
	if !allZero(block[0]) {
		t.Fatalf("unprepared processor should output silence")
	}
	if len(out) != 1 {
		t.Fatalf("events should still be re-emitted, got %d", len(out))
	}
	if p.Prepared() {
		t.Fatalf("Prepared() = true before Prepare")
	}
}

func TestProcessorPrepareRejectsBadSpec(t *testing.T) {
	cases := []ProcessSpec{
		{SampleRate: 0, MaxBlockSize: 512, Channels: 1},
		{SampleRate: math.NaN(), MaxBlockSize: 512, Channels: 1},
		{SampleRate: 44100, MaxBlockSize: 0, Channels: 1},
		{SampleRate: 44100, MaxBlockSize: 512, Channels: 0},
		{SampleRate: 44100, MaxBlockSize: 512, Channels: 3},
		{SampleRate: 44100, MaxBlockSize: 512, Channels: 2, InputChannels: -1},
		{SampleRate: 44100, MaxBlockSize: 512, Channels: 2, MaxEvents: -1},
	}
	for i, spec := range cases {
		p, err := NewProcessor(nil)
		if err != nil {
			t.Fatalf("NewProcessor: %v", err)
		}
		err = p.Prepare(spec)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || !errors.Is(err, ErrConfiguration) {
			t.Fatalf("case %d: expected ConfigError, got %v", i, err)
		}
		if p.Prepared() {
			t.Fatalf("case %d: processor marked prepared after failure", i)
		}
	}
}

func TestNewProcessorRequiresCoreParameters(t *testing.T) {
	store, err := NewStore(
		ChoiceParam(ParamWaveform, "Wave", WaveformNames(), 0),
		FloatParam(ParamCutoff, "Cutoff", 50, 20000, 500),
	)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = NewProcessor(store)
	if !errors.Is(err, ErrUnknownParameter) || !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected missing resonance to fail, got %v", err)
	}
}

func TestNewProcessorRejectsUnsupportedChoices(t *testing.T) {
	waves := append(WaveformNames(), "Supersaw")
	store, err := NewStore(
		ChoiceParam(ParamWaveform, "Wave", waves, 0),
		FloatParam(ParamCutoff, "Cutoff", 50, 20000, 500),
		FloatParam(ParamResonance, "Q", 0.1, 1, 0.5),
	)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := NewProcessor(store); !errors.Is(err, ErrInvalidWaveform) {
		t.Fatalf("expected ErrInvalidWaveform, got %v", err)
	}

	store, err = NewStore(
		ChoiceParam(ParamWaveform, "Wave", WaveformNames(), 0),
		FloatParam(ParamCutoff, "Cutoff", 50, 20000, 500),
		FloatParam(ParamResonance, "Q", 0.1, 1, 0.5),
		ChoiceParam(ParamFilterType, "Type", []string{"LP", "BP", "HP", "Notch"}, 0),
	)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := NewProcessor(store); !errors.Is(err, ErrInvalidFilterType) {
		t.Fatalf("expected ErrInvalidFilterType, got %v", err)
	}
}

func TestProcessorMinimalStoreUsesDefaults(t *testing.T) {
	store, err := NewStore(
		ChoiceParam(ParamWaveform, "Wave", []string{"Sine", "Saw"}, 1),
		FloatParam(ParamCutoff, "Cutoff", 50, 20000, 800),
		FloatParam(ParamResonance, "Q", 0.1, 1, 0.5),
	)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	p, err := NewProcessor(store)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	if err := p.Prepare(ProcessSpec{SampleRate: 44100, MaxBlockSize: 128, Channels: 1}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	p.Process(NewBlock(1, 128), nil)
	snap := p.LastSnapshot()
	if snap.Waveform != WaveSaw || snap.FilterType != LowPass || snap.GateLevel != DefaultGate || snap.OutputGain != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestProcessorParameterChangeAppliesNextBlock(t *testing.T) {
	p := newTestProcessor(t, 44100, 256, 1)
	first := renderBlocks(p, 2, 256, []NoteEvent{NoteOnEvent(0, 57, 100)})
	if p.LastSnapshot().Waveform != WaveSine {
		t.Fatalf("expected sine, got %v", p.LastSnapshot().Waveform)
	}

	if err := p.Store().SetChoice(ParamWaveform, "square"); err != nil {
		t.Fatalf("SetChoice: %v", err)
	}
	mustSet(t, p.Store(), ParamCutoff, 1200)
	second := renderBlocks(p, 1, 256, nil)
	snap := p.LastSnapshot()
	if snap.Waveform != WaveSquare || snap.CutoffHz != 1200 {
		t.Fatalf("snapshot not updated: %+v", snap)
	}
	if analysis.RMS(second) == analysis.RMS(first[256:]) {
		t.Fatalf("output did not change after the parameter update")
	}
}

func TestProcessorClampsOutOfRangeDeclarations(t *testing.T) {
	store, err := NewStore(
		ChoiceParam(ParamWaveform, "Wave", WaveformNames(), 1),
		FloatParam(ParamCutoff, "Cutoff", 50, 100000, 90000),
		FloatParam(ParamResonance, "Q", 0.01, 1, 0.01),
	)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	p, err := NewProcessor(store)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	if err := p.Prepare(ProcessSpec{SampleRate: 44100, MaxBlockSize: 512, Channels: 1}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	out := renderBlocks(p, 8, 512, []NoteEvent{NoteOnEvent(0, 90, 100)})
	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
	}
	if analysis.RMS(out) == 0 {
		t.Fatalf("expected audible output")
	}
}

func TestProcessorChunksLongBlocks(t *testing.T) {
	events := []NoteEvent{NoteOnEvent(0, 65, 100)}

	small := newTestProcessor(t, 44100, 128, 1)
	mustSet(t, small.Store(), ParamWaveform, float64(WaveSaw))
	large := newTestProcessor(t, 44100, 1024, 1)
	mustSet(t, large.Store(), ParamWaveform, float64(WaveSaw))

	a := NewBlock(1, 1000)
	b := NewBlock(1, 1000)
	small.Process(a, events)
	large.Process(b, events)
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("frame %d: chunked %g, whole %g", i, a[0][i], b[0][i])
		}
	}
}

func TestProcessorResetClearsState(t *testing.T) {
	p := newTestProcessor(t, 44100, 256, 1)
	renderBlocks(p, 2, 256, []NoteEvent{NoteOnEvent(0, 60, 100)})
	p.Reset()
	if st := p.GateState(); st.Open() {
		t.Fatalf("gate should be idle after Reset, got %+v", st)
	}
	block := NewBlock(1, 256)
	p.Process(block, nil)
	if !allZero(block[0]) {
		t.Fatalf("expected silence after Reset")
	}
}

func TestSupportsLayout(t *testing.T) {
	for outputs, want := range map[int]bool{0: false, 1: true, 2: true, 6: false} {
		if got := SupportsLayout(outputs); got != want {
			t.Errorf("SupportsLayout(%d) = %v, want %v", outputs, got, want)
		}
	}
}
