package store

import (
	"fmt"
	"math"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("store")

// Ownership tells a Buffer whether releasing it also releases its
// backing store.
type Ownership int

const (
	// The caller keeps the region alive and reclaims it.
	BORROWED = Ownership(iota)
	// The Buffer releases the region, through its releaser if any.
	OWNED
)

func (o Ownership) String() string {
	switch o {
	case BORROWED:
		return "borrowed"
	case OWNED:
		return "owned"
	}
	return fmt.Sprintf("Ownership(%d)", int(o))
}

// Smallest capacity a buffer grows to.
const MIN_GROWTH = 1024 * 1024

/*
Buffer owns a contiguous byte region and a single position marker.

The position is shared: a BufferWriter appends at it and a
BufferReader consumes from it, and both advance the same marker.
Neither cursor keeps a slice of the store between calls, so a
reallocation never leaves a cursor looking at a stale region.

Buffer is not safe for concurrent use. Only one cursor may be moving
the position at a time, and the Buffer must outlive its cursors.
*/
type Buffer struct {
	data      []byte
	offset    int
	ownership Ownership
	release   func([]byte) error
	alloc     Allocator
	maxCap    int
	released  bool
}

type BufferOption func(b *Buffer)

// Allocates backing stores, including those created by growth and
// truncation, from a.
func WithAllocator(a Allocator) BufferOption {
	return func(b *Buffer) {
		assertTrue(a != nil)
		b.alloc = a
	}
}

// Caps the capacity growth and truncation may request.
func WithMaxCapacity(n int) BufferOption {
	return func(b *Buffer) {
		assert2(n >= 0, "max capacity must be >= 0 (got %v)", n)
		b.maxCap = n
	}
}

// Sets the function that releases an OWNED region handed to
// WrapBuffer, e.g. unix.Munmap for a mapped file.
func WithReleaser(fn func([]byte) error) BufferOption {
	return func(b *Buffer) {
		b.release = fn
	}
}

func newBuffer(opts []BufferOption) *Buffer {
	b := &Buffer{alloc: HEAP_ALLOCATOR, maxCap: math.MaxInt}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Creates a buffer with a freshly allocated store of capacity bytes.
func NewBuffer(capacity int, opts ...BufferOption) (*Buffer, error) {
	b := newBuffer(opts)
	data, err := b.allocate("init", capacity)
	if err != nil {
		return nil, err
	}
	b.adopt(data)
	return b, nil
}

/*
Creates a buffer around data, with capacity len(data) and the position
at 0. With BORROWED the caller keeps ownership of data and Release
leaves it alone. With OWNED, Release (or the first reallocation) hands
data to the releaser set by WithReleaser, or simply drops it if none
was set.

Once the buffer grows or is truncated it no longer aliases data.
*/
func WrapBuffer(data []byte, mode Ownership, opts ...BufferOption) *Buffer {
	b := newBuffer(opts)
	b.data = data[:len(data):len(data)]
	b.ownership = mode
	return b
}

func (b *Buffer) allocate(op string, size int) ([]byte, error) {
	if size < 0 {
		return nil, newAllocationError(op, size, ErrNegativeSize)
	}
	if size > b.maxCap {
		log.Warningf("%v of %v bytes refused: limit is %v", op, size, b.maxCap)
		return nil, newAllocationError(op, size, ErrCapacityExceeded)
	}
	data, err := b.alloc.Allocate(size)
	if err != nil {
		log.Warningf("%v of %v bytes failed: %v", op, size, err)
		return nil, newAllocationError(op, size, err)
	}
	assert2(len(data) == size, "allocator returned %v bytes, want %v", len(data), size)
	return data, nil
}

// Replaces the store with one that came from the allocator, releasing
// the previous store according to its ownership.
func (b *Buffer) adopt(data []byte) {
	b.retire(b.data)
	b.data = data
	b.ownership = OWNED
	b.release = b.free
}

func (b *Buffer) free(data []byte) error {
	b.alloc.Free(data)
	return nil
}

func (b *Buffer) retire(old []byte) {
	if b.ownership != OWNED || b.release == nil {
		return
	}
	if err := b.release(old); err != nil {
		// the store has already been replaced, so there is no state to
		// roll back to
		log.Warningf("releasing %v byte store: %v", len(old), err)
	}
}

/*
Makes room for extra more bytes after the position. Capacity doubles,
starting from MIN_GROWTH, until the pending write fits; it is then
clipped to the capacity limit. All bytes of the old store are carried
over. On failure the buffer is unchanged.
*/
func (b *Buffer) grow(extra int) error {
	need := b.offset + extra
	if extra < 0 || need < b.offset {
		return newAllocationError("grow", need, ErrCapacityExceeded)
	}
	if need <= len(b.data) {
		return nil
	}
	newCap := len(b.data)
	for newCap < need {
		if newCap > math.MaxInt/2 {
			newCap = need
			break
		}
		newCap = max(newCap*2, MIN_GROWTH)
	}
	if newCap > b.maxCap && need <= b.maxCap {
		newCap = b.maxCap
	}
	data, err := b.allocate("grow", newCap)
	if err != nil {
		return err
	}
	copy(data, b.data)
	log.Debugf("grew buffer from %v to %v bytes (position %v, pending %v)",
		len(b.data), newCap, b.offset, extra)
	b.adopt(data)
	return nil
}

/*
Reallocates the store to exactly newLen bytes and returns the new
capacity. newLen == 0 shrinks the store to the position, i.e. to the
bytes written so far. Bytes below the new capacity are preserved, and
the position is clamped to it.
*/
func (b *Buffer) Truncate(newLen int) (int, error) {
	if newLen == 0 {
		newLen = b.offset
	}
	data, err := b.allocate("truncate", newLen)
	if err != nil {
		return 0, err
	}
	copy(data, b.data)
	log.Debugf("truncated buffer from %v to %v bytes", len(b.data), newLen)
	b.adopt(data)
	if b.offset > newLen {
		b.offset = newLen
	}
	return newLen, nil
}

/*
Drops the store. An OWNED store is handed to its releaser; a BORROWED
one is left to the caller. The buffer is empty afterwards. Calling
Release twice returns ErrReleased.
*/
func (b *Buffer) Release() (err error) {
	if b.released {
		return ErrReleased
	}
	if b.ownership == OWNED && b.release != nil {
		err = b.release(b.data)
	}
	log.Debugf("released %v", b)
	b.data, b.offset, b.release, b.released = nil, 0, nil, true
	return
}

// Current position, in bytes from the start of the store.
func (b *Buffer) Offset() int {
	return b.offset
}

func (b *Buffer) Capacity() int {
	return len(b.data)
}

func (b *Buffer) AtEnd() bool {
	return b.offset >= len(b.data)
}

func (b *Buffer) Ownership() Ownership {
	return b.ownership
}

/*
Returns the bytes before the position. The slice aliases the store
and must not be used after the next write or truncation.
*/
func (b *Buffer) Bytes() []byte {
	return b.data[:b.offset]
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer(offset=%v, cap=%v, %v)", b.offset, len(b.data), b.ownership)
}
