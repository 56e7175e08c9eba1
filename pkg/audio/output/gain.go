// ABOUTME: Software volume shared by output backends
// ABOUTME: Lock-free so device callbacks can read it every period
package output

import (
	"log"
	"sync/atomic"
)

// gain holds volume 0-100 and mute. The zero value is silent; call
// SetVolume(100) when constructing an output.
type gain struct {
	volume atomic.Int32
	muted  atomic.Bool
}

// SetVolume sets the volume (0-100)
func (g *gain) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	g.volume.Store(int32(volume))
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (g *gain) SetMuted(muted bool) {
	g.muted.Store(muted)
	log.Printf("Muted: %v", muted)
}

// GetVolume returns current volume
func (g *gain) GetVolume() int {
	return int(g.volume.Load())
}

// IsMuted returns mute state
func (g *gain) IsMuted() bool {
	return g.muted.Load()
}

// multiplier calculates the volume multiplier
func (g *gain) multiplier() float32 {
	if g.muted.Load() {
		return 0
	}
	return float32(g.volume.Load()) / 100
}

// apply scales samples in place and clips to [-1, 1]
func (g *gain) apply(samples []float32) {
	m := g.multiplier()
	if m == 1 {
		return
	}
	for i, s := range samples {
		s *= m
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		samples[i] = s
	}
}
