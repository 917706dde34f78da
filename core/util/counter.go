package util

import (
	"sync/atomic"
)

// Tracks a running total, e.g. bytes held by buffers.
type Counter interface {
	AddAndGet(delta int64) int64
	Get() int64
}

// Returns a Counter that is only safe for a single goroutine.
func NewCounter() Counter {
	return &serialCounter{0}
}

// Returns a Counter that may be shared by buffers owned by different
// goroutines.
func NewAtomicCounter() Counter {
	return &atomicCounter{0}
}

type serialCounter struct {
	count int64
}

func (sc *serialCounter) AddAndGet(delta int64) int64 {
	sc.count += delta
	return sc.count
}

func (sc *serialCounter) Get() int64 {
	return sc.count
}

type atomicCounter struct {
	count int64
}

func (ac *atomicCounter) AddAndGet(delta int64) int64 {
	return atomic.AddInt64(&ac.count, delta)
}

func (ac *atomicCounter) Get() int64 {
	return atomic.LoadInt64(&ac.count)
}
