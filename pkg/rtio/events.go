// ABOUTME: MIDI event framing over ring handles
// ABOUTME: Events are published atomically and consumed only when complete
package rtio

import (
	"encoding/binary"

	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
)

// EventHeaderSize is the size of the frame+length prefix of each event.
const EventHeaderSize = 6

// MaxEventSize is the largest payload an event record can carry.
const MaxEventSize = 0xFFFF

// Event is a timestamped MIDI message.
type Event struct {
	// Frame is the sample offset inside the process cycle.
	Frame uint32
	// Data aliases the buffer passed to NextEvent.
	Data []byte
	// Truncated is set when the payload did not fit the caller's buffer;
	// the remainder was discarded.
	Truncated bool
}

// EventWriter writes framed events into a ring.
type EventWriter struct {
	p *ringbuf.Producer
}

// NewEventWriter wraps a producer.
func NewEventWriter(p *ringbuf.Producer) *EventWriter {
	return &EventWriter{p: p}
}

// WriteEvent writes one event or nothing. It returns false when the event is
// larger than MaxEventSize or the ring lacks room for the whole record.
func (w *EventWriter) WriteEvent(frame uint32, data []byte) bool {
	if len(data) > MaxEventSize {
		return false
	}
	size := EventHeaderSize + len(data)
	if w.p.WritableLen() < size {
		return false
	}

	var hdr [EventHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], frame)
	binary.LittleEndian.PutUint16(hdr[4:6], uint16(len(data)))

	// Fill the region first and publish once, so the reader never sees a
	// header without its payload.
	first, second := w.p.WritableRegion()
	copyRegions(first, second, hdr[:], data)
	w.p.Advance(size)
	return true
}

// copyRegions copies parts back to back across the two halves of a region.
func copyRegions(first, second []byte, parts ...[]byte) {
	dst, next := first, second
	for _, part := range parts {
		for len(part) > 0 {
			if len(dst) == 0 {
				if next == nil {
					return
				}
				dst, next = next, nil
				continue
			}
			n := copy(dst, part)
			dst, part = dst[n:], part[n:]
		}
	}
}

// EventReader reads framed events from a ring.
type EventReader struct {
	c *ringbuf.Consumer
}

// NewEventReader wraps a consumer.
func NewEventReader(c *ringbuf.Consumer) *EventReader {
	return &EventReader{c: c}
}

// PendingEvent reports the frame of the next complete event without
// consuming it.
func (r *EventReader) PendingEvent() (frame uint32, size int, ok bool) {
	var hdr [EventHeaderSize]byte
	if r.c.Peek(hdr[:]) < EventHeaderSize {
		return 0, 0, false
	}
	frame = binary.LittleEndian.Uint32(hdr[0:4])
	size = int(binary.LittleEndian.Uint16(hdr[4:6]))
	if r.c.ReadableLen() < EventHeaderSize+size {
		return 0, 0, false
	}
	return frame, size, true
}

// NextEvent consumes the next complete event, copying its payload into buf.
// It returns false when no complete event is available.
func (r *EventReader) NextEvent(buf []byte) (Event, bool) {
	frame, size, ok := r.PendingEvent()
	if !ok {
		return Event{}, false
	}

	r.c.Advance(EventHeaderSize)
	want := size
	if len(buf) < want {
		want = len(buf)
	}
	n := r.c.Read(buf[:want])
	if n < size {
		r.c.Advance(size - n)
	}

	return Event{
		Frame:     frame,
		Data:      buf[:n],
		Truncated: n < size,
	}, true
}
