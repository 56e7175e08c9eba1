//go:build !unix

// ABOUTME: Heap backing memory for the ring on platforms without mmap
// ABOUTME: Release drops the reference and memory locking is unsupported
package ringbuf

import "fmt"

var releaseMemory = releaseHeap

func allocateMemory(size int) (mem []byte, err error) {
	// make panics instead of returning an error when the runtime refuses the size.
	defer func() {
		if r := recover(); r != nil {
			mem, err = nil, fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()
	return make([]byte, size), nil
}

func releaseHeap(mem []byte) error {
	return nil
}

func lockMemory(mem []byte) error {
	return ErrLockUnsupported
}
