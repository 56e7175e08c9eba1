// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Interpolates float32 frames and carries the last frame across chunks
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	// position is measured in frames of a virtual input where frame 0 is the
	// last frame of the previous chunk.
	position   float64
	primed     bool
	lastSample []float32 // one sample per channel
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]float32, channels),
	}
}

// Passthrough reports whether input and output rates are equal
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample converts input samples to output sample rate using linear interpolation
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate
// Input that does not fit in output is dropped; size output with OutputSamplesNeeded.
func (r *Resampler) Resample(input []float32, output []float32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / r.channels

	if !r.primed {
		// Nothing precedes the very first frame.
		r.position = 1
		r.primed = true
	}

	sample := func(frame, ch int) float32 {
		if frame == 0 {
			return r.lastSample[ch]
		}
		return input[(frame-1)*r.channels+ch]
	}

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		frac := float32(r.position - float64(idx))

		if idx > inputFrames || (idx == inputFrames && frac > 0) {
			break
		}

		for ch := 0; ch < r.channels; ch++ {
			s1 := sample(idx, ch)
			s2 := s1
			if frac > 0 {
				s2 = sample(idx+1, ch)
			}
			output[outIdx*r.channels+ch] = s1*(1-frac) + s2*frac
		}

		outIdx++
		r.position += r.ratio
	}

	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.position -= float64(inputFrames)
	if r.position < 0 {
		r.position = 0
	}

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// OutputSamplesNeeded calculates how many output samples can be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 2
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}
