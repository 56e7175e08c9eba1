// ABOUTME: Concurrent producer/consumer stress tests
// ABOUTME: Streams a known byte sequence through small rings from two goroutines
package ringbuf

import (
	"sync"
	"testing"
	"time"
)

func TestConcurrentStream(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		total    int
		regions  bool
	}{
		{"tiny ring copy api", 8, 200000, false},
		{"medium ring copy api", 1024, 1 << 20, false},
		{"tiny ring region api", 8, 200000, true},
		{"medium ring region api", 1024, 1 << 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, c := newPair(t, tt.capacity)

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				produce(p, tt.total, tt.regions)
			}()

			mismatch := consume(c, tt.total, tt.regions)
			wg.Wait()

			if mismatch >= 0 {
				t.Fatalf("byte %d out of sequence", mismatch)
			}
			if c.ReadableLen() != 0 {
				t.Errorf("expected drained ring, %d left", c.ReadableLen())
			}
		})
	}
}

// produce writes byte(i) for i in [0,total), spinning on back-pressure.
func produce(p *Producer, total int, useRegions bool) {
	chunk := make([]byte, 37)
	next := 0
	deadline := time.Now().Add(30 * time.Second)

	for next < total && time.Now().Before(deadline) {
		if useRegions {
			first, second := p.WritableRegion()
			n := 0
			for _, region := range [][]byte{first, second} {
				for i := range region {
					if next+n >= total {
						break
					}
					region[i] = byte(next + n)
					n++
				}
			}
			p.Advance(n)
			next += n
			continue
		}

		size := len(chunk)
		if total-next < size {
			size = total - next
		}
		for i := 0; i < size; i++ {
			chunk[i] = byte(next + i)
		}
		written := p.Write(chunk[:size])
		// Unwritten tail is regenerated on the next pass.
		next += written
	}
}

// consume reads total bytes and returns the first out-of-sequence index, or -1.
func consume(c *Consumer, total int, useRegions bool) int {
	buf := make([]byte, 53)
	got := 0
	deadline := time.Now().Add(30 * time.Second)

	for got < total && time.Now().Before(deadline) {
		if useRegions {
			first, second := c.ReadableRegion()
			for _, region := range [][]byte{first, second} {
				for _, b := range region {
					if b != byte(got) {
						return got
					}
					got++
				}
			}
			c.Advance(len(first) + len(second))
			continue
		}

		n := c.Read(buf)
		for i := 0; i < n; i++ {
			if buf[i] != byte(got) {
				return got
			}
			got++
		}
	}
	if got < total {
		return got
	}
	return -1
}
