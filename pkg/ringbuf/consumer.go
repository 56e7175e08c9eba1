// ABOUTME: Consumer handle, the single reader of a split ring
// ABOUTME: Copying reads, non-destructive peek, readable regions and commit via Advance
package ringbuf

// Consumer is the only reader of a split ring. It never writes ring bytes.
type Consumer struct {
	pair   *pair
	closed bool
}

func (c *Consumer) store() *Store {
	if c.closed {
		panic(ErrClosed)
	}
	return c.pair.store
}

// Read copies up to len(dst) readable bytes into dst, consumes them and
// returns how many were copied.
func (c *Consumer) Read(dst []byte) int {
	s := c.store()
	r := s.r.Load()
	n := c.copyOut(s, r, dst)
	if n > 0 {
		s.r.Store(r + uint64(n))
	}
	return n
}

// Peek copies like Read but leaves the bytes in the ring. Repeated calls
// return the same bytes until Advance or Read.
func (c *Consumer) Peek(dst []byte) int {
	s := c.store()
	return c.copyOut(s, s.r.Load(), dst)
}

func (c *Consumer) copyOut(s *Store, r uint64, dst []byte) int {
	// Load w before touching bytes so everything up to w is visible.
	w := s.w.Load()

	n := s.used(w, r)
	if uint64(len(dst)) < n {
		n = uint64(len(dst))
	}
	if n == 0 {
		return 0
	}

	size := uint64(len(s.buf))
	pos := r & s.mask
	if first := size - pos; first >= n {
		copy(dst[:n], s.buf[pos:pos+n])
	} else {
		copy(dst[:first], s.buf[pos:])
		copy(dst[first:n], s.buf[:n-first])
	}
	return int(n)
}

// ReadableRegion returns the readable bytes as up to two slices without
// consuming them. The slices must be treated as read-only and are valid
// until the matching Advance.
func (c *Consumer) ReadableRegion() (first, second []byte) {
	s := c.store()
	r := s.r.Load()
	w := s.w.Load()
	return regions(s.buf, r&s.mask, s.used(w, r))
}

// Advance consumes n bytes previously inspected with Peek or
// ReadableRegion. n must not exceed what was readable; this is not checked.
func (c *Consumer) Advance(n int) {
	s := c.store()
	s.r.Store(s.r.Load() + uint64(n))
}

// ReadableLen returns the number of bytes available to read right now.
func (c *Consumer) ReadableLen() int {
	return c.store().ReadableLen()
}

// Capacity returns the usable capacity of the ring.
func (c *Consumer) Capacity() int {
	return c.store().Capacity()
}

// State returns a snapshot of the ring counters.
func (c *Consumer) State() State {
	return c.store().State()
}

// Close drops the consumer. The ring memory is released when the producer
// has been closed too. Closing twice is a no-op.
func (c *Consumer) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.pair.drop()
}
