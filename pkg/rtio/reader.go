// ABOUTME: Non-blocking io.Reader adapter over a ring consumer
// ABOUTME: Pads underruns with silence so pull-based players never stall
package rtio

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
)

// SilenceReader is an io.Reader that always fills the whole buffer: real data
// while the ring has it, zero bytes (silence) after that. It never blocks and
// never returns an error, which is what pull-based players expect.
type SilenceReader struct {
	c     *ringbuf.Consumer
	align int

	underruns atomic.Uint64
}

// NewSilenceReader wraps a consumer. Reads from the ring are rounded down to
// a multiple of align bytes so a frame is never split; align <= 0 means 1.
func NewSilenceReader(c *ringbuf.Consumer, align int) *SilenceReader {
	if align <= 0 {
		align = 1
	}
	return &SilenceReader{c: c, align: align}
}

// Read implements io.Reader.
func (r *SilenceReader) Read(p []byte) (int, error) {
	n := r.c.ReadableLen()
	if len(p) < n {
		n = len(p)
	}
	n -= n % r.align
	n = r.c.Read(p[:n])

	if n < len(p) {
		clear(p[n:])
		r.underruns.Add(1)
	}
	return len(p), nil
}

// Underruns returns how many reads had to be padded.
func (r *SilenceReader) Underruns() uint64 {
	return r.underruns.Load()
}
