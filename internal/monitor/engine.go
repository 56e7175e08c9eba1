// ABOUTME: Engine draining the capture ring on a ticker
// ABOUTME: Encodes each block per client and broadcasts periodic ring statistics
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/Resonate-Protocol/rtbridge/pkg/protocol"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// engine is the ring's consumer. Only the engine goroutine touches reader,
// buf and frame.
type engine struct {
	server   *Server
	reader   *rtio.Float32Reader
	overruns func() uint64

	buf   []float32
	frame uint64
}

func newEngine(s *Server, r *rtio.Float32Reader) *engine {
	return &engine{server: s, reader: r}
}

// run drains the ring every chunk tick and publishes stats until ctx ends
func (e *engine) run(ctx context.Context) {
	log.Printf("Monitor engine starting")

	ticker := time.NewTicker(e.server.config.ChunkDuration)
	defer ticker.Stop()
	statsTicker := time.NewTicker(e.server.config.StatsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Monitor engine stopping")
			return
		case <-ticker.C:
			e.pump()
		case <-statsTicker.C:
			e.broadcastStats()
		}
	}
}

// pump reads every whole frame in the ring and sends it to streaming clients.
// Audio read while nobody listens is discarded so the ring never backs up.
func (e *engine) pump() int {
	channels := e.server.config.Format.Channels
	avail := e.reader.ReadableSamples()
	avail -= avail % channels
	if avail == 0 {
		return 0
	}

	if cap(e.buf) < avail {
		e.buf = make([]float32, avail)
	}
	samples := e.buf[:avail]
	e.reader.ReadSamples(samples)

	frame := e.frame
	e.frame += uint64(avail / channels)

	s := e.server
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if !client.streaming.Load() {
			continue
		}
		msgs, err := client.encodeChunks(frame, samples)
		if err != nil {
			log.Printf("Error encoding audio for %s: %v", client.Name, err)
			continue
		}
		for _, msg := range msgs {
			if !s.enqueue(client, msg) && s.config.Debug {
				log.Printf("[DEBUG] Dropped audio for %s (queue full)", client.Name)
			}
		}
	}
	return avail / channels
}

// snapshot builds a stats message from the ring counters
func (e *engine) snapshot() protocol.RingStats {
	state := e.reader.Consumer().State()

	s := e.server
	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	stats := protocol.RingStats{
		Capacity: state.Capacity,
		Readable: state.Readable,
		Written:  state.Written,
		Read:     state.Read,
		Clients:  clients,
	}
	if e.overruns != nil {
		stats.Overruns = e.overruns()
	}
	return stats
}

func (e *engine) broadcastStats() {
	stats := e.snapshot()
	s := e.server
	s.stats.Store(&stats)

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if client.streaming.Load() {
			s.sendMessage(client, protocol.TypeRingStats, stats)
		}
	}
}
