package synth

import (
	"math"
	"testing"
)

func newTestProcessor(t *testing.T, sampleRate float64, blockSize, channels int) *Processor {
	t.Helper()
	p, err := NewProcessor(NewDefaultStore(VoicingFull))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	if err := p.Prepare(ProcessSpec{SampleRate: sampleRate, MaxBlockSize: blockSize, Channels: channels}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return p
}

func mustSet(t *testing.T, s *Store, id string, v float64) {
	t.Helper()
	if err := s.Set(id, v); err != nil {
		t.Fatalf("Set(%s, %g): %v", id, v, err)
	}
}

// renderBlocks runs n blocks and returns channel 0 concatenated.
func renderBlocks(p *Processor, blocks int, frames int, first []NoteEvent) []float32 {
	block := NewBlock(p.Spec().Channels, frames)
	out := make([]float32, 0, blocks*frames)
	for i := 0; i < blocks; i++ {
		var events []NoteEvent
		if i == 0 {
			events = first
		}
		p.Process(block, events)
		out = append(out, block[0]...)
	}
	return out
}

func sineInput(n int, freq, sampleRate float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return out
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func measureFundamentalFreq(samples []float32, sampleRate float64) float64 {
	startIdx := len(samples) / 10
	crossings := 0
	for i := startIdx + 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	if crossings == 0 {
		return 0
	}
	duration := float64(len(samples)-startIdx) / sampleRate
	return float64(crossings) / (2.0 * duration)
}

func allZero(buf []float32) bool {
	for _, v := range buf {
		if v != 0 {
			return false
		}
	}
	return true
}
