package synth

import (
	"fmt"
	"testing"
)

func TestProcessorProcessDoesNotAllocate(t *testing.T) {
	p := newTestProcessor(t, 48000, 256, 2)
	mustSet(t, p.Store(), ParamWaveform, float64(WaveSaw))
	block := NewBlock(2, 256)
	events := []NoteEvent{NoteOnEvent(12, 60, 100), NoteOffEvent(200, 60)}

	p.Process(block, events)
	allocs := testing.AllocsPerRun(100, func() {
		p.Process(block, events)
	})
	if allocs != 0 {
		t.Fatalf("Process allocated %.1f times per call", allocs)
	}
}

func BenchmarkProcessorProcess(b *testing.B) {
	for _, frames := range []int{64, 256, 1024} {
		for _, channels := range []int{1, 2} {
			b.Run(fmt.Sprintf("frames_%d_ch_%d", frames, channels), func(b *testing.B) {
				p, err := NewProcessor(nil)
				if err != nil {
					b.Fatalf("NewProcessor: %v", err)
				}
				if err := p.Prepare(ProcessSpec{SampleRate: 48000, MaxBlockSize: frames, Channels: channels}); err != nil {
					b.Fatalf("Prepare: %v", err)
				}
				block := NewBlock(channels, frames)
				p.Process(block, []NoteEvent{NoteOnEvent(0, 57, 100)})

				b.ReportAllocs()
				b.SetBytes(int64(frames * channels * 4))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					p.Process(block, nil)
				}
			})
		}
	}
}
