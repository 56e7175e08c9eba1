// ABOUTME: Test tone generator source
// ABOUTME: Generates a 440Hz sine wave at half scale on every channel
package source

import (
	"math"
	"sync"
)

// TestTone generates a sine test tone that never ends
type TestTone struct {
	sampleIndex uint64
	sampleMu    sync.Mutex
	frequency   float64
	sampleRate  int
	channels    int
}

// NewTestTone creates a 440Hz tone generator. Zero values pick the defaults.
func NewTestTone(sampleRate, channels int) *TestTone {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	if channels == 0 {
		channels = DefaultChannels
	}

	return &TestTone{
		frequency:  440.0, // A4 note
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// Read fills whole frames and returns the number of samples written
func (s *TestTone) Read(samples []float32) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	numFrames := len(samples) / s.channels

	for i := 0; i < numFrames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		// 50% volume to leave headroom
		value := float32(0.5 * math.Sin(2*math.Pi*s.frequency*t))

		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = value
		}
	}

	s.sampleIndex += uint64(numFrames)

	return numFrames * s.channels, nil
}

func (s *TestTone) SampleRate() int { return s.sampleRate }
func (s *TestTone) Channels() int   { return s.channels }
func (s *TestTone) Metadata() (string, string, string) {
	return "Test Tone", "rtbridge", "Generated"
}
func (s *TestTone) Close() error { return nil }
