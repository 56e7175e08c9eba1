// ABOUTME: Sentinel errors for the ring buffer
// ABOUTME: Used both as returned errors and as panic values for contract violations
package ringbuf

import "errors"

var (
	// ErrAllocation is wrapped by every failure to obtain backing memory.
	ErrAllocation = errors.New("ringbuf: allocation failed")

	// ErrMismatchedJoin is the panic value when Join is handed a producer and a
	// consumer that were not created by the same Split.
	ErrMismatchedJoin = errors.New("ringbuf: producer and consumer belong to different splits")

	// ErrSplit reports an operation that needs exclusive ownership of a store
	// that is currently owned by a producer/consumer pair.
	ErrSplit = errors.New("ringbuf: store is split")

	// ErrClosed reports use of a store or handle after it was released.
	ErrClosed = errors.New("ringbuf: closed")

	// ErrLockUnsupported is returned by LockMemory on platforms without mlock.
	ErrLockUnsupported = errors.New("ringbuf: memory locking not supported on this platform")
)
