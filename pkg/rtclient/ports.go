// ABOUTME: Port seams used by bridges on the process thread
// ABOUTME: Implemented by JACK ports and by test fakes
package rtclient

// AudioBuffer exposes one mono port buffer for the current cycle
type AudioBuffer interface {
	Samples(nframes uint32) []float32
}

// MidiEvent is one MIDI message at a frame offset within a cycle
type MidiEvent struct {
	Time uint32
	Data []byte
}

// MidiSource yields the MIDI events received in the current cycle
type MidiSource interface {
	// Events appends this cycle's events to dst and returns it
	Events(nframes uint32, dst []MidiEvent) []MidiEvent
}

// MidiSink accepts MIDI events for the current cycle
type MidiSink interface {
	// Clear empties the port buffer; it runs once at the start of every cycle
	Clear(nframes uint32)
	// WriteEvent queues ev, returning false if the port buffer is full
	WriteEvent(ev MidiEvent, nframes uint32) bool
}
