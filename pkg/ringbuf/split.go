// ABOUTME: Split/join protocol turning a store into a producer/consumer pair and back
// ABOUTME: Implements the shared liveness flag that frees memory when the second handle closes
package ringbuf

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// pair is the state shared by the two handles of one Split.
type pair struct {
	store *Store

	// live starts true. The first handle to close flips it to false; the
	// handle that finds it already false is the last owner and frees store.
	live atomic.Bool
}

// Split hands ownership of the store to a new producer/consumer pair. The
// store must not be used for anything but length queries until Join returns
// it. Splitting a split store panics with ErrSplit.
func (s *Store) Split() (*Producer, *Consumer) {
	s.mustBeUnsplit()
	s.state.Store(stateSplit)

	p := &pair{store: s}
	p.live.Store(true)

	return &Producer{pair: p}, &Consumer{pair: p}
}

// Join returns ownership of the store to a single owner. Both handles are
// consumed and must not be used afterwards.
//
// Join panics with ErrMismatchedJoin when the handles come from different
// Split calls, and with ErrClosed when either handle was already closed.
func Join(p *Producer, c *Consumer) *Store {
	if p == nil || c == nil {
		panic(fmt.Errorf("%w: nil handle", ErrMismatchedJoin))
	}
	if p.closed || c.closed {
		panic(ErrClosed)
	}
	if p.pair != c.pair || bufferAddr(p.pair.store) != bufferAddr(c.pair.store) {
		panic(fmt.Errorf("%w: producer ring %p, consumer ring %p",
			ErrMismatchedJoin, bufferAddr(p.pair.store), bufferAddr(c.pair.store)))
	}

	p.closed = true
	c.closed = true

	s := p.pair.store
	s.state.Store(stateUnsplit)
	return s
}

func bufferAddr(s *Store) *byte {
	return unsafe.SliceData(s.buf)
}

// drop is called once per handle. The second caller frees the memory.
func (p *pair) drop() error {
	if p.live.Swap(false) {
		return nil
	}
	return p.store.release()
}
