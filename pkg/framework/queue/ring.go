// Package queue provides the lock-free message rings that connect the
// control context to the render context.
package queue

import (
	"sync/atomic"
)

// Ring is a bounded single-producer, single-consumer FIFO.
//
// Push and Pop never block, never allocate and never take a lock, so the
// render thread may sit on either end. Exactly one goroutine may push and
// exactly one may pop at any time; callers with several producers must
// serialize them on their own side.
type Ring[T any] struct {
	items []T
	mask  uint64

	readPos  atomic.Uint64
	writePos atomic.Uint64

	// Statistics for monitoring
	dropped atomic.Uint64
}

// Stats provides health monitoring information.
type Stats struct {
	Len      int
	Capacity int
	Dropped  uint64
}

// New creates a ring holding at least capacity items, rounded up to a power of 2.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	size := nextPowerOf2(uint64(capacity))
	return &Ring[T]{
		items: make([]T, size),
		mask:  size - 1,
	}
}

// Push appends v. It returns false and counts a drop when the ring is full.
func (r *Ring[T]) Push(v T) bool {
	writePos := r.writePos.Load()
	readPos := r.readPos.Load()

	if writePos-readPos >= uint64(len(r.items)) {
		r.dropped.Add(1)
		return false
	}

	r.items[writePos&r.mask] = v
	r.writePos.Store(writePos + 1)
	return true
}

// Pop removes the oldest item. ok is false when the ring is empty.
func (r *Ring[T]) Pop() (v T, ok bool) {
	readPos := r.readPos.Load()
	writePos := r.writePos.Load()

	if readPos == writePos {
		return v, false
	}

	idx := readPos & r.mask
	v = r.items[idx]
	// Drop references held by the slot so the GC can reclaim them
	var zero T
	r.items[idx] = zero
	r.readPos.Store(readPos + 1)
	return v, true
}

// Len returns the number of queued items. It is only a snapshot when the
// other side is active.
func (r *Ring[T]) Len() int {
	return int(r.writePos.Load() - r.readPos.Load())
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Dropped returns how many pushes were refused because the ring was full.
func (r *Ring[T]) Dropped() uint64 {
	return r.dropped.Load()
}

// Stats returns current ring statistics.
func (r *Ring[T]) Stats() Stats {
	return Stats{
		Len:      r.Len(),
		Capacity: r.Cap(),
		Dropped:  r.Dropped(),
	}
}

// nextPowerOf2 rounds up to the next power of 2
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
