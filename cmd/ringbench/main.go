// ABOUTME: Ring throughput and latency benchmark
// ABOUTME: Runs one producer and one consumer goroutine over a ring and reports MB/s and event latency
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

var (
	size       = flag.Int("size", 64*1024, "Ring capacity in bytes")
	chunk      = flag.Int("chunk", 4096, "Bytes per write in bytes mode")
	duration   = flag.Duration("duration", 3*time.Second, "How long to run")
	mode       = flag.String("mode", "bytes", "bytes: raw throughput, events: timestamped event latency")
	lockMemory = flag.Bool("lock", false, "Lock ring memory into RAM")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	store, err := ringbuf.New(*size)
	if err != nil {
		log.Fatalf("Failed to allocate ring: %v", err)
	}
	if *lockMemory {
		if err := store.LockMemory(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	log.Printf("Ring: %d usable bytes, GOMAXPROCS=%d", store.Capacity(), runtime.GOMAXPROCS(0))

	p, c := store.Split()
	defer p.Close()
	defer c.Close()

	switch *mode {
	case "bytes":
		benchBytes(p, c, *chunk, *duration)
	case "events":
		benchEvents(p, c, *duration)
	default:
		log.Fatalf("Unknown mode %q (supported: bytes, events)", *mode)
	}
}

// benchBytes streams a counter pattern and verifies it on the consumer side
func benchBytes(p *ringbuf.Producer, c *ringbuf.Consumer, chunkSize int, d time.Duration) {
	var wg sync.WaitGroup
	stop := make(chan struct{})
	var written, spins uint64

	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, chunkSize)
		var next byte
		for {
			select {
			case <-stop:
				return
			default:
			}
			for i := range buf {
				buf[i] = next + byte(i)
			}
			n := p.Write(buf)
			if n == 0 {
				spins++
				runtime.Gosched()
				continue
			}
			next += byte(n)
			written += uint64(n)
		}
	}()

	var read uint64
	var expect byte
	buf := make([]byte, chunkSize)
	deadline := time.Now().Add(d)
	start := time.Now()
	for time.Now().Before(deadline) {
		n := c.Read(buf)
		if n == 0 {
			runtime.Gosched()
			continue
		}
		for _, b := range buf[:n] {
			if b != expect {
				log.Fatalf("Corruption at byte %d: expected %d, got %d", read, expect, b)
			}
			expect++
		}
		read += uint64(n)
	}
	elapsed := time.Since(start)
	close(stop)
	wg.Wait()

	mb := float64(read) / (1 << 20)
	fmt.Printf("bytes: read %.1f MiB in %v (%.1f MiB/s), producer written %d, full-ring spins %d\n",
		mb, elapsed.Round(time.Millisecond), mb/elapsed.Seconds(), written, spins)
}

// benchEvents sends events stamped with the send time and measures how long
// each waits in the ring
func benchEvents(p *ringbuf.Producer, c *ringbuf.Consumer, d time.Duration) {
	w := rtio.NewEventWriter(p)
	r := rtio.NewEventReader(c)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	epoch := time.Now()
	var dropped uint64

	wg.Add(1)
	go func() {
		defer wg.Done()
		payload := make([]byte, 8)
		var seq uint32
		for {
			select {
			case <-stop:
				return
			default:
			}
			binary.LittleEndian.PutUint64(payload, uint64(time.Since(epoch)))
			if !w.WriteEvent(seq, payload) {
				dropped++
				runtime.Gosched()
				continue
			}
			seq++
			time.Sleep(50 * time.Microsecond)
		}
	}()

	var latencies []time.Duration
	var expectSeq uint32
	buf := make([]byte, 64)
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		ev, ok := r.NextEvent(buf)
		if !ok {
			runtime.Gosched()
			continue
		}
		if ev.Frame != expectSeq {
			log.Fatalf("Out of order: expected event %d, got %d", expectSeq, ev.Frame)
		}
		expectSeq++
		sent := time.Duration(binary.LittleEndian.Uint64(ev.Data))
		latencies = append(latencies, time.Since(epoch)-sent)
	}
	close(stop)
	wg.Wait()

	if len(latencies) == 0 {
		fmt.Println("events: none received")
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	pct := func(q float64) time.Duration {
		return latencies[int(q*float64(len(latencies)-1))]
	}
	fmt.Printf("events: %d received, %d dropped, latency p50 %v p99 %v max %v\n",
		len(latencies), dropped, pct(0.50), pct(0.99), latencies[len(latencies)-1])
}
