package sim

import (
	"fmt"
	"sync"
)

// Allocator hands out memory addresses from a monotonically increasing
// counter in fixed-size blocks. Nothing is ever freed.
type Allocator struct {
	mu        sync.Mutex
	blockSize uint64
	capacity  uint64
	next      uint64
	count     int
}

// NewAllocator creates an Allocator; exactly capacity/blockSize allocations
// succeed.
func NewAllocator(blockSize, capacity uint64) (*Allocator, error) {
	if blockSize == 0 {
		return nil, fmt.Errorf("allocator block size must be positive")
	}
	return &Allocator{blockSize: blockSize, capacity: capacity}, nil
}

// Allocate returns the start address of the next block.
func (a *Allocator) Allocate() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next+a.blockSize > a.capacity {
		return 0, fmt.Errorf("%w: %d of %d bytes in use, block size %d", ErrMemoryExhausted, a.next, a.capacity, a.blockSize)
	}
	addr := a.next
	a.next += a.blockSize
	a.count++
	return addr, nil
}

// Allocations returns the number of successful allocations.
func (a *Allocator) Allocations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// FormatAddress renders an address the way the trace prints it.
func FormatAddress(addr uint64) string {
	return fmt.Sprintf("0x%08x", addr)
}
