//go:build unix

// ABOUTME: Anonymous mmap backing memory for the ring on unix platforms
// ABOUTME: Memory is released with munmap and can be pinned with mlock
package ringbuf

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Swapped by tests to count releases.
var releaseMemory = munmapImpl

func allocateMemory(size int) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrAllocation, size, err)
	}
	return mem, nil
}

func munmapImpl(mem []byte) error {
	if mem == nil {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("ringbuf: munmap: %w", err)
	}
	return nil
}

func lockMemory(mem []byte) error {
	return unix.Mlock(mem)
}
