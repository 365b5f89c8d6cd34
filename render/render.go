// Package render drives a synth.Processor offline, block by block, the way
// an audio host would.
package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-subsynth/synth"
)

// Config controls an offline render.
type Config struct {
	SampleRate int
	BlockSize  int
	Channels   int
	MonoOutput bool
	// Tail is rendered after the last note-off, in seconds.
	Tail float64
	// Duration, when > 0, fixes the total length in seconds instead.
	Duration float64
}

// DefaultConfig returns a 48 kHz stereo render with 128-frame blocks.
func DefaultConfig() Config {
	return Config{SampleRate: 48000, BlockSize: 128, Channels: 2, Tail: 0.25}
}

// Note is a scheduled note. Start and Length are in seconds.
type Note struct {
	Note     int
	Velocity int
	Start    float64
	Length   float64
}

// Arpeggio schedules notes one step apart, each held for length seconds.
func Arpeggio(notes []int, velocity int, start, step, length float64) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = Note{Note: n, Velocity: velocity, Start: start + float64(i)*step, Length: length}
	}
	return out
}

type scheduled struct {
	frame int
	ev    synth.NoteEvent
}

// Render prepares p for cfg, plays notes and returns interleaved samples.
// Events land at their frame offset inside the block that contains them.
func Render(p *synth.Processor, cfg Config, notes []Note) ([]float32, error) {
	if p == nil {
		return nil, fmt.Errorf("nil processor")
	}
	if cfg.Tail < 0 || math.IsNaN(cfg.Tail) {
		return nil, fmt.Errorf("tail must be >= 0, got %g", cfg.Tail)
	}
	if err := p.Prepare(synth.ProcessSpec{
		SampleRate:   float64(cfg.SampleRate),
		MaxBlockSize: cfg.BlockSize,
		Channels:     cfg.Channels,
		MonoOutput:   cfg.MonoOutput,
	}); err != nil {
		return nil, err
	}

	sr := float64(cfg.SampleRate)
	events := make([]scheduled, 0, 2*len(notes))
	lastFrame := 0
	for i, n := range notes {
		if n.Note < 0 || n.Note > 127 {
			return nil, fmt.Errorf("note %d: key %d outside 0..127", i, n.Note)
		}
		if n.Velocity < 0 || n.Velocity > 127 {
			return nil, fmt.Errorf("note %d: velocity %d outside 0..127", i, n.Velocity)
		}
		if n.Start < 0 || n.Length < 0 || math.IsNaN(n.Start) || math.IsNaN(n.Length) {
			return nil, fmt.Errorf("note %d: invalid timing start=%g length=%g", i, n.Start, n.Length)
		}
		on := int(math.Round(n.Start * sr))
		off := int(math.Round((n.Start + n.Length) * sr))
		events = append(events,
			scheduled{frame: on, ev: synth.NoteOnEvent(0, n.Note, n.Velocity)},
			scheduled{frame: off, ev: synth.NoteOffEvent(0, n.Note)},
		)
		if off > lastFrame {
			lastFrame = off
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].frame < events[j].frame })

	total := lastFrame + int(math.Round(cfg.Tail*sr))
	if cfg.Duration > 0 {
		total = int(math.Round(cfg.Duration * sr))
	}
	if total < 1 {
		total = 1
	}

	out := make([]float32, total*cfg.Channels)
	block := synth.NewBlock(cfg.Channels, cfg.BlockSize)
	pending := make([]synth.NoteEvent, 0, len(events))
	next := 0
	for pos := 0; pos < total; pos += cfg.BlockSize {
		n := cfg.BlockSize
		if pos+n > total {
			n = total - pos
		}
		pending = pending[:0]
		for next < len(events) && events[next].frame < pos+n {
			ev := events[next].ev
			ev.Frame = events[next].frame - pos
			if ev.Frame < 0 {
				ev.Frame = 0
			}
			pending = append(pending, ev)
			next++
		}

		view := block
		if n < cfg.BlockSize {
			view = make([][]float32, cfg.Channels)
			for ch := range view {
				view[ch] = block[ch][:n]
			}
		}
		p.Process(view, pending)
		synth.Interleave(out[pos*cfg.Channels:], view, n)
	}
	return out, nil
}
