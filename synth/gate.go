package synth

// GatePhase is the note gate state.
type GatePhase int

const (
	GateIdle GatePhase = iota
	GateSounding
)

func (p GatePhase) String() string {
	if p == GateSounding {
		return "sounding"
	}
	return "idle"
}

// GateState is the gate's output towards the oscillator.
type GateState struct {
	Phase       GatePhase
	FrequencyHz float32
	Amplitude   float32
}

// Open reports whether a note has been received since the last reset.
func (s GateState) Open() bool { return s.Phase == GateSounding }

// NoteGate is a monophonic, last-event-wins note interpreter. Note-on sets
// the pitch and opens the gate at a fixed level; note-off zeroes the
// amplitude but keeps the pitch latched. It does not track which note owns
// the voice, so an unmatched note-off still closes the amplitude.
type NoteGate struct {
	level float32
	state GateState
}

// NewNoteGate creates an idle gate with the given open level.
func NewNoteGate(level float32) *NoteGate {
	g := &NoteGate{level: level}
	g.Reset()
	return g
}

// SetLevel changes the amplitude used by subsequent note-ons.
func (g *NoteGate) SetLevel(level float32) {
	g.level = level
}

// Level returns the open-gate amplitude.
func (g *NoteGate) Level() float32 { return g.level }

// Reset closes the gate and restores the initial pitch.
func (g *NoteGate) Reset() {
	g.state = GateState{Phase: GateIdle, FrequencyHz: 440, Amplitude: 0}
}

// Handle applies one event. Velocity is accepted but does not scale the
// amplitude; aftertouch, pitch wheel and controllers leave the state alone.
func (g *NoteGate) Handle(ev NoteEvent) {
	switch {
	case ev.IsNoteOn():
		g.state.Phase = GateSounding
		g.state.FrequencyHz = NoteFrequency(ev.Note)
		g.state.Amplitude = g.level
	case ev.IsNoteOff():
		g.state.Amplitude = 0
	}
}

// State returns the current gate output.
func (g *NoteGate) State() GateState { return g.state }
