package upscaler

import "math"

// JitterSequence yields sub-pixel camera offsets from a Halton(2, 3) sequence.
//
// The sequence length depends on the upscale ratio so that every output pixel
// receives samples; it restarts whenever the (input, output) pair changes.
// The zero value is ready to use.
type JitterSequence struct {
	input  Resolution
	output Resolution
	phases uint32
	index  uint32
}

// Reset restarts the sequence for a resolution pair.
func (j *JitterSequence) Reset(input, output Resolution) {
	j.input = input
	j.output = output
	j.phases = JitterPhaseCount(input, output)
	j.index = 0
}

// Next returns the next offset in pixels, each component in (-0.5, 0.5).
// The sequence restarts if input or output differs from the last call.
func (j *JitterSequence) Next(input, output Resolution) [2]float32 {
	if j.phases == 0 || input != j.input || output != j.output {
		j.Reset(input, output)
	}
	i := j.index%j.phases + 1
	j.index++
	return [2]float32{
		float32(halton(i, 2) - 0.5),
		float32(halton(i, 3) - 0.5),
	}
}

// Phases returns the current sequence length.
func (j *JitterSequence) Phases() uint32 {
	return j.phases
}

// JitterPhaseCount returns ceil(8 * (output.Width / input.Width)^2), at least 1.
func JitterPhaseCount(input, output Resolution) uint32 {
	if input.Width == 0 {
		return 1
	}
	ratio := float64(output.Width) / float64(input.Width)
	return max(uint32(math.Ceil(8*ratio*ratio)), 1)
}

// halton returns the index-th element (1-based) of the radical inverse in base.
func halton(index, base uint32) float64 {
	f, r := 1.0, 0.0
	for index > 0 {
		f /= float64(base)
		r += f * float64(index%base)
		index /= base
	}
	return r
}
