package store

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// Returned by checked reads when fewer bytes remain than requested.
	ErrShortRead = errors.New("short read: not enough bytes left in buffer")

	ErrCapacityExceeded = errors.New("capacity limit exceeded")
	ErrNegativeSize     = errors.New("negative size")
	ErrReleased         = errors.New("buffer already released")
)

/*
AllocationError reports a failed allocation or reallocation of a
buffer's backing store. The buffer that produced it is left exactly
as it was before the failing call.
*/
type AllocationError struct {
	Op        string // init, grow or truncate
	Requested int
	Err       error
}

func newAllocationError(op string, requested int, err error) *AllocationError {
	return &AllocationError{Op: op, Requested: requested, Err: err}
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%v: cannot allocate %v bytes: %v", e.Op, e.Requested, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// Returns true if err is, or wraps, an AllocationError.
func IsAllocationError(err error) bool {
	var ae *AllocationError
	return errors.As(err, &ae)
}

func assertTrue(ok bool) {
	assert2(ok, "assert fail")
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
