package synth

import (
	"cmp"
	"fmt"
	"slices"
)

// EventKind classifies a note event.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	Aftertouch
	PitchWheel
	ControlChange
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case Aftertouch:
		return "aftertouch"
	case PitchWheel:
		return "pitch-wheel"
	case ControlChange:
		return "control-change"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// NoteEvent is a timestamped MIDI-like message. Frame is the offset inside
// the block the event belongs to. Value carries the aftertouch pressure,
// pitch-wheel position or controller value.
type NoteEvent struct {
	Frame    int
	Kind     EventKind
	Note     int
	Velocity int
	Value    int
}

// NoteOnEvent builds a note-on at frame.
func NoteOnEvent(frame, note, velocity int) NoteEvent {
	return NoteEvent{Frame: frame, Kind: NoteOn, Note: note, Velocity: velocity}
}

// NoteOffEvent builds a note-off at frame.
func NoteOffEvent(frame, note int) NoteEvent {
	return NoteEvent{Frame: frame, Kind: NoteOff, Note: note}
}

// IsNoteOn reports a note-on with non-zero velocity.
func (e NoteEvent) IsNoteOn() bool {
	return e.Kind == NoteOn && e.Velocity > 0
}

// IsNoteOff reports a note-off, including a note-on with zero velocity.
func (e NoteEvent) IsNoteOff() bool {
	return e.Kind == NoteOff || (e.Kind == NoteOn && e.Velocity <= 0)
}

func sortByFrame(events []NoteEvent) {
	slices.SortStableFunc(events, func(a, b NoteEvent) int {
		return cmp.Compare(a.Frame, b.Frame)
	})
}
