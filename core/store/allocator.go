package store

import (
	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
)

/*
Allocator hands out backing stores for buffers. Allocate must either
return a slice of exactly size bytes or an error; it must never
return a partially usable slice. Free is called once a store is no
longer referenced by its buffer.
*/
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Free(data []byte)
}

type heapAllocator struct{}

func (heapAllocator) Allocate(size int) (data []byte, err error) {
	defer func() {
		// make() panics instead of returning for sizes the runtime
		// refuses outright
		if r := recover(); r != nil {
			data, err = nil, errors.Errorf("%v", r)
		}
	}()
	return make([]byte, size), nil
}

func (heapAllocator) Free(data []byte) {}

// Allocates on the Go heap and leaves reclamation to the GC.
var HEAP_ALLOCATOR Allocator = heapAllocator{}

/*
TrackingAllocator delegates to another Allocator but keeps the number
of live bytes in a Counter, and refuses allocations that would take
that number past the limit. A limit <= 0 disables the check.

Share one TrackingAllocator between all the buffers of an index to
bound the index's memory footprint.
*/
type TrackingAllocator struct {
	Allocator
	bytesUsed util.Counter
	limit     int64
}

func NewTrackingAllocator(parent Allocator, bytesUsed util.Counter, limit int64) *TrackingAllocator {
	assertTrue(parent != nil && bytesUsed != nil)
	return &TrackingAllocator{parent, bytesUsed, limit}
}

func (a *TrackingAllocator) Allocate(size int) ([]byte, error) {
	if used := a.bytesUsed.AddAndGet(int64(size)); a.limit > 0 && used > a.limit {
		a.bytesUsed.AddAndGet(-int64(size))
		return nil, errors.Wrapf(ErrCapacityExceeded, "%v bytes in use, limit %v", used-int64(size), a.limit)
	}
	data, err := a.Allocator.Allocate(size)
	if err != nil {
		a.bytesUsed.AddAndGet(-int64(size))
		return nil, err
	}
	return data, nil
}

func (a *TrackingAllocator) Free(data []byte) {
	a.bytesUsed.AddAndGet(-int64(len(data)))
	a.Allocator.Free(data)
}

func (a *TrackingAllocator) BytesUsed() int64 {
	return a.bytesUsed.Get()
}
