package sim

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArbiter_RoundRobinClosure(t *testing.T) {
	// GIVEN a pool of 3 hard drives
	a, err := NewArbiter(1, 3)
	require.NoError(t, err)

	// WHEN 3 acquire/release pairs run in sequence
	var slots []int
	for i := 0; i < 3; i++ {
		slot, err := a.Acquire(ResourceHardDrive)
		require.NoError(t, err)
		slots = append(slots, slot)
		require.NoError(t, a.Release(ResourceHardDrive, slot))
	}

	// THEN every slot was used once and the cursor wrapped to 0
	assert.Equal(t, []int{0, 1, 2}, slots)
	cursor, err := a.Cursor(ResourceHardDrive)
	require.NoError(t, err)
	assert.Equal(t, 0, cursor)
}

func TestArbiter_UnmanagedDevices_NoSlot(t *testing.T) {
	a, err := NewArbiter(1, 1)
	require.NoError(t, err)
	for _, res := range []Resource{ResourceKeyboard, ResourceScanner, ResourceMonitor} {
		slot, err := a.Acquire(res)
		require.NoError(t, err)
		assert.Equal(t, NoSlot, slot, res.String())
		assert.NoError(t, a.Release(res, slot))
		assert.Equal(t, 0, a.PoolSize(res))
	}
}

func TestArbiter_UnknownResource(t *testing.T) {
	a, err := NewArbiter(1, 1)
	require.NoError(t, err)
	_, err = a.Acquire(ResourceRun)
	assert.ErrorIs(t, err, ErrUnknownResource)
	assert.ErrorIs(t, a.Release(ResourceRun, 0), ErrUnknownResource)
	_, err = a.Cursor(ResourceRun)
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestArbiter_ReleaseWithoutAcquire_ErrNotHeld(t *testing.T) {
	a, err := NewArbiter(2, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, a.Release(ResourceProjector, 0), ErrNotHeld)
	assert.ErrorIs(t, a.Release(ResourceProjector, 2), ErrNotHeld)
	assert.ErrorIs(t, a.Release(ResourceProjector, -1), ErrNotHeld)
	// cursor does not move on a failed release
	cursor, _ := a.Cursor(ResourceProjector)
	assert.Equal(t, 0, cursor)
}

func TestNewArbiter_EmptyPool_Fails(t *testing.T) {
	_, err := NewArbiter(0, 1)
	assert.Error(t, err)
	_, err = NewArbiter(1, 0)
	assert.Error(t, err)
}

func TestArbiter_AcquireBlocksWhileHeld(t *testing.T) {
	// GIVEN the only projector is held
	a, err := NewArbiter(1, 1)
	require.NoError(t, err)
	held, err := a.Acquire(ResourceProjector)
	require.NoError(t, err)

	// WHEN a second caller tries to acquire it
	acquired := make(chan int)
	go func() {
		slot, _ := a.Acquire(ResourceProjector)
		acquired <- slot
	}()

	// THEN it waits until the holder releases
	select {
	case <-acquired:
		t.Fatal("second Acquire returned while the slot was held")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, a.Release(ResourceProjector, held))
	select {
	case slot := <-acquired:
		assert.Equal(t, 0, slot)
		require.NoError(t, a.Release(ResourceProjector, slot))
	case <-time.After(time.Second):
		t.Fatal("second Acquire never returned")
	}
}

func TestArbiter_SingleProjector_NoOverlap(t *testing.T) {
	// GIVEN one projector and several concurrent users
	a, err := NewArbiter(1, 1)
	require.NoError(t, err)
	var inUse, maxInUse int32
	var wg sync.WaitGroup

	// WHEN each holds it briefly
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot, err := a.Acquire(ResourceProjector)
			assert.NoError(t, err)
			n := atomic.AddInt32(&inUse, 1)
			for {
				m := atomic.LoadInt32(&maxInUse)
				if n <= m || atomic.CompareAndSwapInt32(&maxInUse, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inUse, -1)
			assert.NoError(t, a.Release(ResourceProjector, slot))
		}()
	}
	wg.Wait()

	// THEN at most one holder existed at any moment
	assert.Equal(t, int32(1), maxInUse)
}

func TestArbiter_OverlappingHolds_ReleaseOwnSlot(t *testing.T) {
	// GIVEN a pool of 2 hard drives where A holds slot 0 and B queues on it
	a, err := NewArbiter(1, 2)
	require.NoError(t, err)
	slotA, err := a.Acquire(ResourceHardDrive)
	require.NoError(t, err)
	require.Equal(t, 0, slotA)

	acquired := make(chan int, 1)
	go func() {
		slot, err := a.Acquire(ResourceHardDrive)
		assert.NoError(t, err)
		acquired <- slot
	}()
	time.Sleep(20 * time.Millisecond)

	// WHEN A releases and B is granted the same slot
	require.NoError(t, a.Release(ResourceHardDrive, slotA))
	var slotB int
	select {
	case slotB = <-acquired:
	case <-time.After(time.Second):
		t.Fatal("queued Acquire never returned")
	}
	assert.Equal(t, 0, slotB)

	// THEN B releases the slot it holds, not the one under the cursor
	require.NoError(t, a.Release(ResourceHardDrive, slotB))

	// AND the pool keeps serving acquires without blocking
	done := make(chan []int, 1)
	go func() {
		var slots []int
		for i := 0; i < 4; i++ {
			slot, err := a.Acquire(ResourceHardDrive)
			assert.NoError(t, err)
			slots = append(slots, slot)
			assert.NoError(t, a.Release(ResourceHardDrive, slot))
		}
		done <- slots
	}()
	select {
	case slots := <-done:
		assert.Equal(t, []int{0, 1, 0, 1}, slots)
	case <-time.After(time.Second):
		t.Fatal("pool deadlocked after overlapping holds")
	}
}
