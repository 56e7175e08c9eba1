// ABOUTME: Producer handle, the single writer of a split ring
// ABOUTME: Copying writes, zero-copy writable regions and commit via Advance
package ringbuf

// Producer is the only writer of a split ring. It may be used from one
// goroutine at a time, typically the real-time callback or the thread that
// feeds it.
type Producer struct {
	pair   *pair
	closed bool
}

func (p *Producer) store() *Store {
	if p.closed {
		panic(ErrClosed)
	}
	return p.pair.store
}

// Write copies as much of src as fits and returns the number of bytes
// written. A short count means the ring is full; Write never blocks.
func (p *Producer) Write(src []byte) int {
	s := p.store()
	w := s.w.Load()
	r := s.r.Load()

	n := s.mask - s.used(w, r)
	if uint64(len(src)) < n {
		n = uint64(len(src))
	}
	if n == 0 {
		return 0
	}

	size := uint64(len(s.buf))
	pos := w & s.mask
	if first := size - pos; first >= n {
		copy(s.buf[pos:pos+n], src[:n])
	} else {
		copy(s.buf[pos:], src[:first])
		copy(s.buf[:n-first], src[first:n])
	}

	// Publish only after the bytes are in place.
	s.w.Store(w + n)
	return int(n)
}

// WritableRegion returns the free space as up to two slices. second is only
// non-empty when the free space wraps past the end of the array. Bytes
// written into the region become visible after Advance.
func (p *Producer) WritableRegion() (first, second []byte) {
	s := p.store()
	w := s.w.Load()
	r := s.r.Load()

	n := s.mask - s.used(w, r)
	return regions(s.buf, w&s.mask, n)
}

// Advance commits n bytes written through WritableRegion. n must not exceed
// the length of the region obtained before; this is not checked.
func (p *Producer) Advance(n int) {
	s := p.store()
	s.w.Store(s.w.Load() + uint64(n))
}

// WritableLen returns the number of bytes that can be written right now.
func (p *Producer) WritableLen() int {
	return p.store().WritableLen()
}

// Capacity returns the usable capacity of the ring.
func (p *Producer) Capacity() int {
	return p.store().Capacity()
}

// State returns a snapshot of the ring counters.
func (p *Producer) State() State {
	return p.store().State()
}

// LockMemory pins the ring's pages in RAM. Call it during setup, never from
// the real-time thread. Failure is not fatal.
func (p *Producer) LockMemory() error {
	return p.store().lockMemory()
}

// Close drops the producer. The ring memory is released when the consumer
// has been closed too. Closing twice is a no-op.
func (p *Producer) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pair.drop()
}

// regions splits the n-byte span starting at pos into at most two slices.
func regions(buf []byte, pos, n uint64) (first, second []byte) {
	size := uint64(len(buf))
	end := pos + n
	if end <= size {
		return buf[pos:end:end], nil
	}
	return buf[pos:size:size], buf[: end-size : end-size]
}
