// ABOUTME: Lock-free SPSC byte ring package documentation
// ABOUTME: Describes the store, the producer/consumer handles and the split/join lifecycle
// Package ringbuf provides a wait-free single-producer/single-consumer byte ring
// used to move audio and MIDI data in and out of real-time callbacks.
//
// A Store is allocated once, outside the real-time thread, and split into
// exactly one Producer and one Consumer:
//
//	store, err := ringbuf.New(64 * 1024)
//	if err != nil {
//	    return err
//	}
//	_ = store.LockMemory() // best effort
//	producer, consumer := store.Split()
//
// The two handles may then be moved to different goroutines (one of them is
// usually the audio callback). They communicate only through two atomic
// position counters; no handle operation blocks, allocates or takes a lock.
//
// Short reads and writes are the back-pressure signal: Write and Read return
// how many bytes were actually moved and callers decide whether to retry or
// drop.
//
// The backing memory is released exactly once, by whichever handle is closed
// last. Join turns a matching pair back into an unsplit Store, which is
// required for Reset and Resize.
package ringbuf
