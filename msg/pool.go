package msg

import "sync/atomic"

// Allocated is the embeddable base for every pooled message cell. It gives
// the cell an atomic reference count and a handle back to the pool it was
// allocated from, so the last RemoveRef can return it to the free list
// without the caller needing to know which pool owns it.
type Allocated struct {
	refCount atomic.Int32
	pool     returner
}

// returner is the subset of *Allocator[T] a cell needs to give itself back.
// It is implemented generically below; the interface lets Allocated stay
// non-generic so every message type can embed it directly.
type returner interface {
	release(cell clearable)
}

// clearable is implemented by every concrete message type. Clear resets
// invariant-relevant fields before the cell re-enters the free list, so a
// reused cell can never leak state from its previous owner.
type clearable interface {
	Clear()
}

// AddRef increments the reference count. Safe to call concurrently.
func (a *Allocated) AddRef() {
	n := a.refCount.Add(1)
	assertf(n > 1, "msg: AddRef on a cell with refcount %d", n-1)
}

// removeRef decrements the reference count and, if it reaches zero, returns
// the cell to its pool after calling Clear. cell is the concrete message
// embedding this Allocated, passed down so Clear can run on the full type.
func (a *Allocated) removeRef(cell clearable) {
	n := a.refCount.Add(-1)
	assertf(n >= 0, "msg: RemoveRef underflow (refcount went to %d)", n)
	if n == 0 {
		cell.Clear()
		a.pool.release(cell)
	}
}

// RefCount returns the current reference count. Intended for tests and
// diagnostics only — the value may be stale the instant it is read.
func (a *Allocated) RefCount() int32 { return a.refCount.Load() }

func (a *Allocated) setOwner(p returner) { a.pool = p }

// initRefCount sets the refcount to 1 on allocation. Allocate asserts the
// cell was idle (refcount 0) before doing so — a cell returning from the
// free list with a nonzero refcount indicates release was called twice on
// the same cell, which is a programmer error.
func (a *Allocated) initRefCount() {
	assertf(a.refCount.Load() == 0, "msg: allocated cell had nonzero refcount %d", a.refCount.Load())
	a.refCount.Store(1)
}

// PoolStats reports the current and peak usage of an Allocator.
type PoolStats struct {
	Capacity int
	InUse    int
	Peak     int
}

// Allocator is a fixed-capacity pool of cells of type T. Allocate blocks
// when the pool is exhausted — back-pressure, not an error — matching the
// contract that steady-state operation never blocks and blocking is a
// design-time sizing signal. Allocator is safe for concurrent use.
type Allocator[T ownedCell] struct {
	free     chan T
	capacity int
	inUse    atomic.Int32
	peak     atomic.Int32
}

// ownedCell is implemented by the concrete *T so NewAllocator can register
// itself as the owning pool on each preallocated cell.
type ownedCell interface {
	clearable
	setOwner(returner)
	initRefCount()
}

// NewAllocator preallocates capacity cells by calling newCell once per slot,
// registers this allocator as their owner, and pushes them all onto the
// free list.
func NewAllocator[T ownedCell](capacity int, newCell func() T) *Allocator[T] {
	assertf(capacity > 0, "msg: allocator capacity must be positive")
	a := &Allocator[T]{
		free:     make(chan T, capacity),
		capacity: capacity,
	}
	for i := 0; i < capacity; i++ {
		cell := newCell()
		cell.setOwner(a)
		a.free <- cell
	}
	return a
}

// Allocate dequeues a cell, asserts it was returned with a zero refcount,
// sets the refcount to 1, and updates in-use/peak counters. It blocks if
// the pool is currently exhausted.
func (a *Allocator[T]) Allocate() T {
	cell := <-a.free
	cell.initRefCount()
	inUse := a.inUse.Add(1)
	for {
		peak := a.peak.Load()
		if inUse <= peak || a.peak.CompareAndSwap(peak, inUse) {
			break
		}
	}
	return cell
}

// release returns cell to the free list. Called only by Allocated.removeRef
// once the refcount has reached zero.
func (a *Allocator[T]) release(cell clearable) {
	a.inUse.Add(-1)
	a.free <- cell.(T)
}

// Stats returns a point-in-time snapshot of pool usage. Counts may be
// slightly stale under concurrent allocation/release.
func (a *Allocator[T]) Stats() PoolStats {
	return PoolStats{
		Capacity: a.capacity,
		InUse:    int(a.inUse.Load()),
		Peak:     int(a.peak.Load()),
	}
}
