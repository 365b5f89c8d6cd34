// Package stream adapts a synth.Processor to a pull-based io.Reader of
// interleaved float32 little-endian PCM, the format audio players consume.
package stream

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-subsynth/synth"
)

// BytesPerSample is the size of one float32LE sample.
const BytesPerSample = 4

// Reader renders one block per refill. Note events posted with Send from
// any goroutine are picked up at the next block boundary with frame 0.
type Reader struct {
	proc     *synth.Processor
	channels int
	events   chan synth.NoteEvent

	block   [][]float32
	pending []synth.NoteEvent
	pcm     []float32
	buf     []byte
	off     int
	frames  atomic.Int64
}

// NewReader prepares p with spec and allocates every buffer used by Read.
// queue is the capacity of the event channel.
func NewReader(p *synth.Processor, spec synth.ProcessSpec, queue int) (*Reader, error) {
	if err := p.Prepare(spec); err != nil {
		return nil, err
	}
	if queue < 1 {
		queue = synth.DefaultMaxEvents
	}
	n := spec.MaxBlockSize * spec.Channels
	r := &Reader{
		proc:     p,
		channels: spec.Channels,
		events:   make(chan synth.NoteEvent, queue),
		block:    synth.NewBlock(spec.Channels, spec.MaxBlockSize),
		pending:  make([]synth.NoteEvent, 0, queue),
		pcm:      make([]float32, n),
		buf:      make([]byte, n*BytesPerSample),
	}
	r.off = len(r.buf)
	return r, nil
}

// Send queues ev without blocking. It reports false when the queue is full.
func (r *Reader) Send(ev synth.NoteEvent) bool {
	ev.Frame = 0
	select {
	case r.events <- ev:
		return true
	default:
		return false
	}
}

// NoteOn queues a note-on.
func (r *Reader) NoteOn(note, velocity int) bool {
	return r.Send(synth.NoteOnEvent(0, note, velocity))
}

// NoteOff queues a note-off.
func (r *Reader) NoteOff(note int) bool {
	return r.Send(synth.NoteOffEvent(0, note))
}

// Frames returns the number of frames rendered so far. It is safe to call
// while another goroutine reads.
func (r *Reader) Frames() int64 { return r.frames.Load() }

// Read fills b with PCM. It never returns an error; the stream is endless.
func (r *Reader) Read(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		if r.off >= len(r.buf) {
			r.render()
		}
		n := copy(b[written:], r.buf[r.off:])
		r.off += n
		written += n
	}
	return written, nil
}

func (r *Reader) render() {
	r.pending = r.pending[:0]
drain:
	for len(r.pending) < cap(r.pending) {
		select {
		case ev := <-r.events:
			r.pending = append(r.pending, ev)
		default:
			break drain
		}
	}

	r.proc.Process(r.block, r.pending)
	frames := len(r.block[0])
	synth.Interleave(r.pcm, r.block, frames)
	for i, v := range r.pcm {
		binary.LittleEndian.PutUint32(r.buf[i*BytesPerSample:], math.Float32bits(v))
	}
	r.off = 0
	r.frames.Add(int64(frames))
}
