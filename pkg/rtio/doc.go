// ABOUTME: Sample and event framing on top of the byte ring
// ABOUTME: Provides float32 sample readers/writers, MIDI event framing and an io.Reader adapter
// Package rtio frames audio samples and MIDI events on top of a ringbuf pair.
//
// The ring itself only moves bytes. rtio fixes the encodings used by the rest
// of rtbridge:
//   - audio: interleaved float32 samples, little-endian IEEE 754
//   - MIDI: [frame uint32][length uint16][bytes] records
//
// Every method here is safe to call from a real-time callback: none of them
// block or allocate after construction.
package rtio
