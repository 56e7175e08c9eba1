// ABOUTME: Audio output interface definition
// ABOUTME: Backends pull float32 samples from a ring on their own callback thread
package output

import (
	"fmt"
	"sync/atomic"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// Output represents an audio output device
type Output interface {
	// Open starts playback of interleaved samples read from r. The device
	// callback only calls non-blocking reads and plays silence on underrun.
	Open(format audio.Format, r *rtio.Float32Reader) error

	// Close stops playback and releases output resources
	Close() error
}

// VolumeControl is implemented by outputs with software volume
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	GetVolume() int
	IsMuted() bool
}

// UnderrunCounter is implemented by outputs that count short reads
type UnderrunCounter interface {
	Underruns() uint64
}

// Backends lists the names accepted by New
var Backends = []string{"malgo", "oto", "portaudio", "jack"}

// New creates an output by backend name
func New(backend string) (Output, error) {
	switch backend {
	case "malgo", "":
		return NewMalgo(), nil
	case "oto":
		return NewOto(), nil
	case "portaudio":
		return NewPortAudio(), nil
	case "jack":
		return NewJACK(JACKConfig{}), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %q (supported: %v)", backend, Backends)
	}
}

// renderer fills device buffers from the ring with software volume
type renderer struct {
	gain

	reader    *rtio.Float32Reader
	channels  int
	underruns atomic.Uint64
}

// render fills out completely, zero-filling what the ring cannot supply
func (x *renderer) render(out []float32) {
	if x.reader.FillFrames(out, x.channels) < len(out) {
		x.underruns.Add(1)
	}
	x.gain.apply(out)
}

// Underruns returns how many callbacks could not be filled completely
func (x *renderer) Underruns() uint64 {
	return x.underruns.Load()
}
