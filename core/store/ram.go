package store

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
)

/*
A memory-resident Directory implementation. Each file is a Buffer
allocated with the directory's options, so a TrackingAllocator can
bound the directory's footprint. Buffers returned by OpenBuffer
borrow the file's bytes and must not be used after the file is
deleted or overwritten.

This class is optimized for small memory-resident indexes.
*/
type RAMDirectory struct {
	directoryState

	fileMap     map[string]*Buffer // synchronized
	fileMapLock *sync.RWMutex
	sizeInBytes util.Counter
	opts        []BufferOption
}

func NewRAMDirectory(opts ...BufferOption) *RAMDirectory {
	return &RAMDirectory{
		directoryState: directoryState{isOpen: true},
		fileMap:        make(map[string]*Buffer),
		fileMapLock:    &sync.RWMutex{},
		sizeInBytes:    util.NewAtomicCounter(),
		opts:           opts,
	}
}

func (rd *RAMDirectory) ListAll() ([]string, error) {
	if err := rd.ensureOpen(); err != nil {
		return nil, err
	}
	rd.fileMapLock.RLock()
	defer rd.fileMapLock.RUnlock()
	names := make([]string, 0, len(rd.fileMap))
	for name := range rd.fileMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (rd *RAMDirectory) FileExists(name string) bool {
	rd.fileMapLock.RLock()
	defer rd.fileMapLock.RUnlock()
	_, ok := rd.fileMap[name]
	return ok
}

func (rd *RAMDirectory) FileLength(name string) (int64, error) {
	if err := rd.ensureOpen(); err != nil {
		return 0, err
	}
	rd.fileMapLock.RLock()
	defer rd.fileMapLock.RUnlock()
	file, ok := rd.fileMap[name]
	if !ok {
		return 0, errors.Wrap(os.ErrNotExist, name)
	}
	return int64(file.Capacity()), nil
}

// Total bytes held by all files.
func (rd *RAMDirectory) RamBytesUsed() int64 {
	return rd.sizeInBytes.Get()
}

func (rd *RAMDirectory) DeleteFile(name string) error {
	if err := rd.ensureOpen(); err != nil {
		return err
	}
	rd.fileMapLock.Lock()
	defer rd.fileMapLock.Unlock()
	file, ok := rd.fileMap[name]
	if !ok {
		return errors.Wrap(os.ErrNotExist, name)
	}
	rd.remove(name, file)
	return nil
}

func (rd *RAMDirectory) remove(name string, file *Buffer) {
	rd.sizeInBytes.AddAndGet(-int64(file.Capacity()))
	delete(rd.fileMap, name)
	file.Release()
}

func (rd *RAMDirectory) CreateOutput(name string) (io.WriteCloser, error) {
	if err := rd.ensureOpen(); err != nil {
		return nil, err
	}
	buf, err := NewBuffer(0, rd.opts...)
	if err != nil {
		return nil, err
	}
	return &RAMOutputStream{BufferWriter: NewBufferWriter(buf), parent: rd, name: name}, nil
}

// Nothing to sync in memory.
func (rd *RAMDirectory) Sync(names []string) error {
	return rd.ensureOpen()
}

func (rd *RAMDirectory) OpenBuffer(name string) (*Buffer, error) {
	if err := rd.ensureOpen(); err != nil {
		return nil, err
	}
	rd.fileMapLock.RLock()
	defer rd.fileMapLock.RUnlock()
	file, ok := rd.fileMap[name]
	if !ok {
		return nil, errors.Wrap(os.ErrNotExist, name)
	}
	return WrapBuffer(file.Bytes(), BORROWED), nil
}

// Closes the store to future operations, releasing all files.
func (rd *RAMDirectory) Close() error {
	rd.fileMapLock.Lock()
	defer rd.fileMapLock.Unlock()
	rd.isOpen = false
	for name, file := range rd.fileMap {
		rd.remove(name, file)
	}
	return nil
}

func (rd *RAMDirectory) String() string {
	return fmt.Sprintf("RAMDirectory(files=%v, bytes=%v)", len(rd.fileMap), rd.sizeInBytes.Get())
}

/*
Buffers a file in memory. On Close the content is shrunk to fit and
published under the output's name, replacing any previous file.
*/
type RAMOutputStream struct {
	*BufferWriter
	parent *RAMDirectory
	name   string
	closed bool
}

func (out *RAMOutputStream) Close() error {
	if out.closed {
		return nil
	}
	out.closed = true
	buf := out.Buffer()
	if _, err := buf.Truncate(0); err != nil {
		buf.Release()
		return err
	}

	rd := out.parent
	rd.fileMapLock.Lock()
	defer rd.fileMapLock.Unlock()
	if err := rd.ensureOpen(); err != nil {
		buf.Release()
		return err
	}
	if old, ok := rd.fileMap[out.name]; ok {
		rd.remove(out.name, old)
	}
	rd.fileMap[out.name] = buf
	rd.sizeInBytes.AddAndGet(int64(buf.Capacity()))
	return nil
}
