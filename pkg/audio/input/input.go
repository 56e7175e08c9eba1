// ABOUTME: Audio input interface definition
// ABOUTME: Backends push whole float32 frames into a ring and count overruns
package input

import (
	"fmt"
	"sync/atomic"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// Input represents an audio capture device
type Input interface {
	// Open starts capturing interleaved samples into w
	Open(format audio.Format, w *rtio.Float32Writer) error

	// Close stops capture and releases resources
	Close() error
}

// OverrunCounter is implemented by inputs that drop frames on a full ring
type OverrunCounter interface {
	Overruns() uint64
}

// FixedRate is implemented by inputs whose server dictates the sample rate
type FixedRate interface {
	DeviceRate() (int, error)
}

// Backends lists the device names accepted by New
var Backends = []string{"malgo", "jack"}

// New creates a device input by backend name
func New(backend string) (Input, error) {
	switch backend {
	case "malgo", "":
		return NewMalgo(), nil
	case "jack":
		return NewJACK(JACKConfig{}), nil
	default:
		return nil, fmt.Errorf("unknown input backend: %q (supported: %v)", backend, Backends)
	}
}

// capturer writes device buffers into the ring
type capturer struct {
	writer   *rtio.Float32Writer
	channels int
	overruns atomic.Uint64
	frames   atomic.Uint64
}

// capture writes as many whole frames of samples as fit
func (c *capturer) capture(samples []float32) {
	samples = samples[:len(samples)-len(samples)%c.channels]
	n := c.writer.WriteFrames(samples, c.channels)
	if n < len(samples) {
		c.overruns.Add(1)
	}
	c.frames.Add(uint64(n / c.channels))
}

// Overruns returns how many buffers could not be written completely
func (c *capturer) Overruns() uint64 {
	return c.overruns.Load()
}

// Frames returns the number of frames committed to the ring
func (c *capturer) Frames() uint64 {
	return c.frames.Load()
}
