//go:build unix

package store

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

/*
Maps the file at path privately into memory and wraps the mapping in an
OWNED buffer whose releaser unmaps it. Writes through the buffer are
copy-on-write and never reach the file. An empty file yields an empty
buffer with no mapping.
*/
func MapFile(path string, opts ...BufferOption) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return WrapBuffer(nil, BORROWED, opts...), nil
	}
	if int64(int(size)) != size {
		return nil, newAllocationError("mmap", int(size), ErrCapacityExceeded)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %v", path)
	}
	log.Debugf("mapped %v (%v bytes)", path, size)
	return WrapBuffer(data, OWNED, append(opts, WithReleaser(unix.Munmap))...), nil
}
