// ABOUTME: Float32 sample writer and reader over ring handles
// ABOUTME: Moves whole samples only and zero-fills on underrun when asked
package rtio

import (
	"encoding/binary"
	"math"

	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
)

// SampleSize is the encoded size of one float32 sample.
const SampleSize = 4

const scratchSamples = 256

// Float32Writer writes float32 samples into a ring.
type Float32Writer struct {
	p       *ringbuf.Producer
	scratch [scratchSamples * SampleSize]byte
}

// NewFloat32Writer wraps a producer.
func NewFloat32Writer(p *ringbuf.Producer) *Float32Writer {
	return &Float32Writer{p: p}
}

// Producer returns the wrapped producer.
func (w *Float32Writer) Producer() *ringbuf.Producer {
	return w.p
}

// WritableSamples returns how many whole samples fit right now.
func (w *Float32Writer) WritableSamples() int {
	return w.p.WritableLen() / SampleSize
}

// WriteSamples writes as many whole samples as fit and returns that count.
func (w *Float32Writer) WriteSamples(samples []float32) int {
	n := w.WritableSamples()
	if len(samples) < n {
		n = len(samples)
	}

	for done := 0; done < n; {
		k := n - done
		if k > scratchSamples {
			k = scratchSamples
		}
		buf := w.scratch[:k*SampleSize]
		for i, s := range samples[done : done+k] {
			binary.LittleEndian.PutUint32(buf[i*SampleSize:], math.Float32bits(s))
		}
		// Space was checked above and only this writer adds data.
		w.p.Write(buf)
		done += k
	}
	return n
}

// WriteFrames writes as many whole frames of channels samples as fit and
// returns the number of samples written. A trailing partial frame in samples
// is never written.
func (w *Float32Writer) WriteFrames(samples []float32, channels int) int {
	return w.WriteSamples(samples[:wholeFrames(len(samples), w.WritableSamples(), channels)])
}

// wholeFrames returns min(want, avail) rounded down to a multiple of channels.
func wholeFrames(want, avail, channels int) int {
	n := min(want, avail)
	if channels > 1 {
		n -= n % channels
	}
	return n
}

// Float32Reader reads float32 samples from a ring.
type Float32Reader struct {
	c       *ringbuf.Consumer
	scratch [scratchSamples * SampleSize]byte
}

// NewFloat32Reader wraps a consumer.
func NewFloat32Reader(c *ringbuf.Consumer) *Float32Reader {
	return &Float32Reader{c: c}
}

// Consumer returns the wrapped consumer.
func (r *Float32Reader) Consumer() *ringbuf.Consumer {
	return r.c
}

// ReadableSamples returns how many whole samples are available.
func (r *Float32Reader) ReadableSamples() int {
	return r.c.ReadableLen() / SampleSize
}

// ReadSamples reads up to len(dst) whole samples and returns the count.
func (r *Float32Reader) ReadSamples(dst []float32) int {
	n := r.ReadableSamples()
	if len(dst) < n {
		n = len(dst)
	}

	for done := 0; done < n; {
		k := n - done
		if k > scratchSamples {
			k = scratchSamples
		}
		buf := r.scratch[:k*SampleSize]
		r.c.Read(buf)
		for i := range dst[done : done+k] {
			dst[done+i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*SampleSize:]))
		}
		done += k
	}
	return n
}

// FillSamples reads like ReadSamples and zeroes the rest of dst, so the
// caller always gets a full block. It returns the number of real samples.
func (r *Float32Reader) FillSamples(dst []float32) int {
	n := r.ReadSamples(dst)
	clear(dst[n:])
	return n
}

// FillFrames reads whole frames of channels samples into dst and zeroes the
// rest. A partial frame left in the ring stays there until the producer
// completes it, so an underrun never shifts samples between channels.
func (r *Float32Reader) FillFrames(dst []float32, channels int) int {
	n := r.ReadSamples(dst[:wholeFrames(len(dst), r.ReadableSamples(), channels)])
	clear(dst[n:])
	return n
}

// Discard drops up to n readable samples and returns how many were dropped.
func (r *Float32Reader) Discard(n int) int {
	if avail := r.ReadableSamples(); avail < n {
		n = avail
	}
	r.c.Advance(n * SampleSize)
	return n
}
