package sim

import (
	"fmt"
	"sync"
)

// NoSlot is the slot reported for devices that are not pooled.
const NoSlot = -1

// pool is a fixed set of mutually exclusive device slots with a round-robin
// cursor. Each slot is a 1-buffered channel: a send acquires, a receive
// releases.
type pool struct {
	slots  []chan struct{}
	cursor int
}

func newPool(size int) *pool {
	p := &pool{slots: make([]chan struct{}, size)}
	for i := range p.slots {
		p.slots[i] = make(chan struct{}, 1)
	}
	return p
}

// Arbiter gates access to shared devices. Projectors and hard drives are
// pooled; keyboard, scanner and monitor are always available.
//
// The cursor of a pool only advances on Release, so an operation keeps the
// same slot for its whole duration and the next request receives the next
// slot in round-robin order. Callers queued on the same cursor slot are
// served one after another on that slot.
type Arbiter struct {
	mu        sync.Mutex
	pools     map[Resource]*pool
	unmanaged map[Resource]bool
}

// NewArbiter creates an Arbiter with the given pool sizes (each at least 1).
func NewArbiter(projectors, hardDrives int) (*Arbiter, error) {
	if projectors < 1 || hardDrives < 1 {
		return nil, fmt.Errorf("device pools need at least one slot (projectors=%d, hard drives=%d)", projectors, hardDrives)
	}
	return &Arbiter{
		pools: map[Resource]*pool{
			ResourceProjector: newPool(projectors),
			ResourceHardDrive: newPool(hardDrives),
		},
		unmanaged: map[Resource]bool{
			ResourceKeyboard: true,
			ResourceScanner:  true,
			ResourceMonitor:  true,
		},
	}, nil
}

// Acquire blocks until the slot at the pool cursor is free and takes it.
// The wait cannot be cancelled. It returns the slot index, or NoSlot for
// unmanaged devices.
func (a *Arbiter) Acquire(res Resource) (int, error) {
	a.mu.Lock()
	if a.unmanaged[res] {
		a.mu.Unlock()
		return NoSlot, nil
	}
	p, ok := a.pools[res]
	if !ok {
		a.mu.Unlock()
		return NoSlot, fmt.Errorf("%w: %v is not an arbitrated device", ErrUnknownResource, res)
	}
	slot := p.cursor
	ch := p.slots[slot]
	a.mu.Unlock()

	ch <- struct{}{}
	return slot, nil
}

// Release frees slot, the index Acquire returned, and advances the pool
// cursor circularly. Unmanaged devices take NoSlot. Releasing a slot that is
// not held fails with ErrNotHeld and leaves the cursor in place.
func (a *Arbiter) Release(res Resource, slot int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unmanaged[res] {
		return nil
	}
	p, ok := a.pools[res]
	if !ok {
		return fmt.Errorf("%w: %v is not an arbitrated device", ErrUnknownResource, res)
	}
	if slot < 0 || slot >= len(p.slots) {
		return fmt.Errorf("%w: %v slot %d out of range", ErrNotHeld, res, slot)
	}
	select {
	case <-p.slots[slot]:
	default:
		return fmt.Errorf("%w: %v slot %d", ErrNotHeld, res, slot)
	}
	p.cursor = (p.cursor + 1) % len(p.slots)
	return nil
}

// Cursor returns the current cursor of res's pool, or NoSlot for unmanaged
// devices.
func (a *Arbiter) Cursor(res Resource) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unmanaged[res] {
		return NoSlot, nil
	}
	p, ok := a.pools[res]
	if !ok {
		return NoSlot, fmt.Errorf("%w: %v", ErrUnknownResource, res)
	}
	return p.cursor, nil
}

// PoolSize returns the number of slots for res, 0 for unmanaged devices.
func (a *Arbiter) PoolSize(res Resource) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pools[res]; ok {
		return len(p.slots)
	}
	return 0
}
