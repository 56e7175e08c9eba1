// ABOUTME: Ring allocation shared by the player and capture applications
// ABOUTME: Sizes a float32 ring from a duration and optionally locks it in memory
package app

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// ring is one split store with float32 views on both ends
type ring struct {
	producer *ringbuf.Producer
	consumer *ringbuf.Consumer
	writer   *rtio.Float32Writer
	reader   *rtio.Float32Reader
}

// ringBytes returns the byte size holding ms of interleaved float32 audio
func ringBytes(sampleRate, channels, ms int) int {
	return sampleRate * channels * rtio.SampleSize * ms / 1000
}

func newRing(sampleRate, channels, ms int, lock bool) (*ring, error) {
	store, err := ringbuf.New(ringBytes(sampleRate, channels, ms))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate ring: %w", err)
	}
	if lock {
		if err := store.LockMemory(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	log.Printf("Ring allocated: %d usable bytes (%dms requested)", store.Capacity(), ms)

	p, c := store.Split()
	return &ring{
		producer: p,
		consumer: c,
		writer:   rtio.NewFloat32Writer(p),
		reader:   rtio.NewFloat32Reader(c),
	}, nil
}

// State returns the ring counters; safe from any goroutine
func (r *ring) State() ringbuf.State {
	return r.consumer.State()
}

// close releases both handles; the memory goes with the second
func (r *ring) close() {
	if err := r.producer.Close(); err != nil {
		log.Printf("Warning: ring producer close: %v", err)
	}
	if err := r.consumer.Close(); err != nil {
		log.Printf("Warning: ring consumer close: %v", err)
	}
}
