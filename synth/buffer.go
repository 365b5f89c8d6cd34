package synth

// NewBlock allocates a planar block of channels x frames.
func NewBlock(channels, frames int) [][]float32 {
	backing := make([]float32, channels*frames)
	block := make([][]float32, channels)
	for ch := range block {
		block[ch] = backing[ch*frames : (ch+1)*frames : (ch+1)*frames]
	}
	return block
}

// Interleave writes frames of block into dst as interleaved samples and
// returns the number of samples written.
func Interleave(dst []float32, block [][]float32, frames int) int {
	channels := len(block)
	if channels == 0 {
		return 0
	}
	if limit := len(dst) / channels; frames > limit {
		frames = limit
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			dst[i*channels+ch] = block[ch][i]
		}
	}
	return frames * channels
}
