// ABOUTME: Ring buffer store holding the byte array and position counters
// ABOUTME: Handles allocation, capacity queries, reset and resize while unsplit
package ringbuf

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// maxLength keeps nextPowerOfTwo from overflowing int.
const maxLength = 1 << (bits.UintSize - 2)

const (
	stateUnsplit uint32 = iota
	stateSplit
	stateReleased
)

// State is a snapshot of ring counters for diagnostics.
type State struct {
	Capacity int    // usable bytes
	Written  uint64 // total bytes ever committed by the producer
	Read     uint64 // total bytes ever committed by the consumer
	Readable int    // Written - Read
}

// Store is the shared byte array and its two counters.
//
// The write and read counters grow without bound; only their masked value
// indexes buf. One byte is never used so that w == r always means empty.
type Store struct {
	// w and r live on separate cache lines so the producer and consumer do
	// not invalidate each other on every commit.
	w atomic.Uint64
	_ [56]byte
	r atomic.Uint64
	_ [56]byte

	buf    []byte
	mask   uint64
	state  atomic.Uint32
	locked atomic.Bool
}

// New allocates a store able to hold at least capacity bytes. The backing
// array is rounded up to the next power of two and one byte of it is reserved,
// so Capacity reports nextPowerOfTwo(capacity)-1.
func New(capacity int) (*Store, error) {
	length, err := ringLength(capacity)
	if err != nil {
		return nil, err
	}

	mem, err := allocateMemory(length)
	if err != nil {
		return nil, err
	}

	return &Store{
		buf:  mem[:length:length],
		mask: uint64(length - 1),
	}, nil
}

// ringLength returns the power-of-two array length for a requested capacity.
func ringLength(capacity int) (int, error) {
	if capacity < 0 {
		return 0, fmt.Errorf("%w: negative capacity %d", ErrAllocation, capacity)
	}
	if capacity > maxLength {
		return 0, fmt.Errorf("%w: capacity %d exceeds %d", ErrAllocation, capacity, maxLength)
	}
	return nextPowerOfTwo(capacity), nil
}

// nextPowerOfTwo returns the smallest power of two >= n, and 1 for n <= 1.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Capacity returns the number of usable bytes. It never changes while the
// store is split.
func (s *Store) Capacity() int {
	return int(s.mask)
}

// ReadableLen returns the number of bytes committed and not yet consumed.
func (s *Store) ReadableLen() int {
	return int(s.used(s.w.Load(), s.r.Load()))
}

// WritableLen returns the number of bytes that can be written without
// overwriting unread data.
func (s *Store) WritableLen() int {
	return int(s.mask - s.used(s.w.Load(), s.r.Load()))
}

// used is w-r clamped to the usable capacity. The clamp only matters after a
// caller broke the Advance contract; it keeps slicing in bounds.
func (s *Store) used(w, r uint64) uint64 {
	n := w - r
	if n > s.mask {
		return s.mask
	}
	return n
}

// State returns a snapshot of the counters.
func (s *Store) State() State {
	w := s.w.Load()
	r := s.r.Load()
	return State{
		Capacity: int(s.mask),
		Written:  w,
		Read:     r,
		Readable: int(s.used(w, r)),
	}
}

// LockMemory asks the OS to keep the backing pages resident so the real-time
// side never takes a page fault. Locking twice is a no-op. Failure leaves the
// ring fully usable.
func (s *Store) LockMemory() error {
	s.mustBeLive()
	return s.lockMemory()
}

func (s *Store) lockMemory() error {
	if s.locked.Load() {
		return nil
	}
	if err := lockMemory(s.buf); err != nil {
		return fmt.Errorf("ringbuf: lock %d bytes: %w", len(s.buf), err)
	}
	s.locked.Store(true)
	return nil
}

// Reset empties the ring and zeroes its bytes. It panics with ErrSplit if the
// store is owned by a producer/consumer pair.
func (s *Store) Reset() {
	s.mustBeUnsplit()
	clear(s.buf)
	s.w.Store(0)
	s.r.Store(0)
}

// Resize replaces the backing array with one sized for capacity and empties
// the ring. On error the old array is kept untouched.
func (s *Store) Resize(capacity int) error {
	switch s.state.Load() {
	case stateSplit:
		return ErrSplit
	case stateReleased:
		return ErrClosed
	}

	length, err := ringLength(capacity)
	if err != nil {
		return err
	}
	mem, err := allocateMemory(length)
	if err != nil {
		return err
	}

	old := s.buf
	wasLocked := s.locked.Load()
	s.buf = mem[:length:length]
	s.mask = uint64(length - 1)
	s.w.Store(0)
	s.r.Store(0)
	s.locked.Store(false)

	if err := releaseMemory(old); err != nil {
		return err
	}
	if wasLocked {
		// Best effort, same as the original lock.
		_ = s.lockMemory()
	}
	return nil
}

// Close releases the backing memory of an unsplit store. Closing a released
// store is a no-op; closing a split store returns ErrSplit because the pair
// owns the memory.
func (s *Store) Close() error {
	switch s.state.Load() {
	case stateSplit:
		return ErrSplit
	case stateReleased:
		return nil
	}
	return s.release()
}

// release frees the backing memory. Callers guarantee it runs once.
func (s *Store) release() error {
	s.state.Store(stateReleased)
	mem := s.buf
	s.buf = nil
	return releaseMemory(mem)
}

func (s *Store) mustBeUnsplit() {
	switch s.state.Load() {
	case stateSplit:
		panic(ErrSplit)
	case stateReleased:
		panic(ErrClosed)
	}
}

func (s *Store) mustBeLive() {
	if s.state.Load() == stateReleased {
		panic(ErrClosed)
	}
}
