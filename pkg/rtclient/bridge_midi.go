// ABOUTME: MIDI bridges between server ports and framed event rings
// ABOUTME: Events carry an absolute frame stamp from a per-bridge cycle clock
package rtclient

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// DefaultMaxEventSize bounds MIDI payloads read back from a ring
const DefaultMaxEventSize = 4096

// MidiStats counts what a MIDI bridge did
type MidiStats struct {
	Cycles    uint64
	Events    uint64
	Dropped   uint64 // ring or port full
	Late      uint64 // stamped before the current cycle, sent at offset 0
	Truncated uint64 // larger than the bridge buffer, discarded
}

type midiCounters struct {
	cycles    atomic.Uint64
	events    atomic.Uint64
	dropped   atomic.Uint64
	late      atomic.Uint64
	truncated atomic.Uint64
}

func (c *midiCounters) snapshot() MidiStats {
	return MidiStats{
		Cycles:    c.cycles.Load(),
		Events:    c.events.Load(),
		Dropped:   c.dropped.Load(),
		Late:      c.late.Load(),
		Truncated: c.truncated.Load(),
	}
}

// MidiInBridge stamps incoming events with clock+offset and frames them into a ring
type MidiInBridge struct {
	port   MidiSource
	w      *rtio.EventWriter
	events []MidiEvent
	clock  atomic.Uint32
	stats  midiCounters
}

// NewMidiInBridge records port into w
func NewMidiInBridge(port MidiSource, w *rtio.EventWriter) *MidiInBridge {
	return &MidiInBridge{
		port:   port,
		w:      w,
		events: make([]MidiEvent, 0, 64),
	}
}

// Process moves this cycle's events into the ring
func (b *MidiInBridge) Process(nframes uint32) int {
	start := b.clock.Load()
	b.events = b.port.Events(nframes, b.events[:0])

	for _, ev := range b.events {
		if b.w.WriteEvent(start+ev.Time, ev.Data) {
			b.stats.events.Add(1)
		} else {
			b.stats.dropped.Add(1)
		}
	}

	b.clock.Store(start + nframes)
	b.stats.cycles.Add(1)
	return 0
}

// Clock returns the frame stamp of the next cycle's first frame
func (b *MidiInBridge) Clock() uint32 {
	return b.clock.Load()
}

// Stats returns the bridge counters
func (b *MidiInBridge) Stats() MidiStats {
	return b.stats.snapshot()
}

// MidiOutBridge sends ring events whose stamps fall in the current cycle
type MidiOutBridge struct {
	r     *rtio.EventReader
	port  MidiSink
	buf   []byte
	clock atomic.Uint32
	stats midiCounters
}

// NewMidiOutBridge plays events from r on port. maxEventSize bounds the
// payload buffer; larger events are discarded.
func NewMidiOutBridge(r *rtio.EventReader, port MidiSink, maxEventSize int) *MidiOutBridge {
	if maxEventSize <= 0 {
		maxEventSize = DefaultMaxEventSize
	}
	return &MidiOutBridge{
		r:    r,
		port: port,
		buf:  make([]byte, maxEventSize),
	}
}

// Process writes every event stamped before the end of this cycle. Events
// stamped for later cycles stay in the ring.
func (b *MidiOutBridge) Process(nframes uint32) int {
	b.port.Clear(nframes)

	start := b.clock.Load()
	end := start + nframes

	for {
		frame, _, ok := b.r.PendingEvent()
		if !ok || int32(frame-end) >= 0 {
			break
		}

		ev, _ := b.r.NextEvent(b.buf)
		if ev.Truncated {
			b.stats.truncated.Add(1)
			continue
		}

		var offset uint32
		if int32(frame-start) < 0 {
			b.stats.late.Add(1)
		} else {
			offset = frame - start
		}

		if b.port.WriteEvent(MidiEvent{Time: offset, Data: ev.Data}, nframes) {
			b.stats.events.Add(1)
		} else {
			b.stats.dropped.Add(1)
		}
	}

	b.clock.Store(end)
	b.stats.cycles.Add(1)
	return 0
}

// Clock returns the frame stamp of the next cycle's first frame
func (b *MidiOutBridge) Clock() uint32 {
	return b.clock.Load()
}

// Stats returns the bridge counters
func (b *MidiOutBridge) Stats() MidiStats {
	return b.stats.snapshot()
}
