package index

import (
	"fmt"

	"github.com/ironsweet/gosearch/core/codec/compressing"
	"github.com/ironsweet/gosearch/core/store"
)

// Default number of documents per index block.
const DEFAULT_BLOCK_SIZE = 100

// Default capacity of a freshly opened block, in bytes. Blocks grow on
// demand and are shrunk to fit once full.
const DEFAULT_INITIAL_BLOCK_CAPACITY = 6

// Denotes no limit on the capacity of a single block buffer.
const UNLIMITED_BUFFER_CAPACITY = 0

const DEFAULT_FLAGS = INDEX_STORE_FREQS | INDEX_STORE_FIELD_FLAGS | INDEX_STORE_TERM_OFFSETS

/*
Holds the configuration used to create an InvertedIndex. Changes made
after the index is created do not affect it.

All setter methods return the IndexConfig to allow chaining:

	conf := NewIndexConfig().
		SetBlockSize(128).
		SetCompression(compressing.COMPRESSION_MODE_ZSTD)
*/
type IndexConfig struct {
	blockSize            int
	initialBlockCapacity int
	maxBufferCapacity    int
	flags                IndexFlags
	compression          compressing.CompressionMode
	allocator            store.Allocator
}

func NewIndexConfig() *IndexConfig {
	return &IndexConfig{
		blockSize:            DEFAULT_BLOCK_SIZE,
		initialBlockCapacity: DEFAULT_INITIAL_BLOCK_CAPACITY,
		maxBufferCapacity:    UNLIMITED_BUFFER_CAPACITY,
		flags:                DEFAULT_FLAGS,
		compression:          compressing.COMPRESSION_MODE_NONE,
		allocator:            store.HEAP_ALLOCATOR,
	}
}

// Number of documents after which a new block is opened.
func (conf *IndexConfig) SetBlockSize(n int) *IndexConfig {
	assert2(n > 0, "block size must be > 0 (got %v)", n)
	conf.blockSize = n
	return conf
}

func (conf *IndexConfig) BlockSize() int {
	return conf.blockSize
}

func (conf *IndexConfig) SetInitialBlockCapacity(n int) *IndexConfig {
	assert2(n >= 0, "initial block capacity must be >= 0 (got %v)", n)
	conf.initialBlockCapacity = n
	return conf
}

func (conf *IndexConfig) InitialBlockCapacity() int {
	return conf.initialBlockCapacity
}

/*
Limits the capacity of any single block buffer. A posting that would
push a block past it fails with a store.AllocationError.
UNLIMITED_BUFFER_CAPACITY disables the limit.
*/
func (conf *IndexConfig) SetMaxBufferCapacity(n int) *IndexConfig {
	assert2(n >= 0, "max buffer capacity must be >= 0 (got %v)", n)
	conf.maxBufferCapacity = n
	return conf
}

func (conf *IndexConfig) MaxBufferCapacity() int {
	return conf.maxBufferCapacity
}

// Which per-posting fields are stored.
func (conf *IndexConfig) SetFlags(flags IndexFlags) *IndexConfig {
	conf.flags = flags
	return conf
}

func (conf *IndexConfig) Flags() IndexFlags {
	return conf.flags
}

// How blocks are compressed when the index is serialized.
func (conf *IndexConfig) SetCompression(mode compressing.CompressionMode) *IndexConfig {
	conf.compression = mode
	return conf
}

func (conf *IndexConfig) Compression() compressing.CompressionMode {
	return conf.compression
}

/*
Sets the allocator for block buffers. Share a store.TrackingAllocator
between indexes to bound and observe their combined footprint.
*/
func (conf *IndexConfig) SetAllocator(a store.Allocator) *IndexConfig {
	assert2(a != nil, "allocator must not be nil")
	conf.allocator = a
	return conf
}

func (conf *IndexConfig) Allocator() store.Allocator {
	return conf.allocator
}

func (conf *IndexConfig) bufferOptions() []store.BufferOption {
	opts := []store.BufferOption{store.WithAllocator(conf.allocator)}
	if conf.maxBufferCapacity != UNLIMITED_BUFFER_CAPACITY {
		opts = append(opts, store.WithMaxCapacity(conf.maxBufferCapacity))
	}
	return opts
}

func (conf *IndexConfig) clone() *IndexConfig {
	ans := *conf
	return &ans
}

func (conf *IndexConfig) String() string {
	return fmt.Sprintf("blockSize=%v\ninitialBlockCapacity=%v\nmaxBufferCapacity=%v\nflags=%v\ncompression=%v\n",
		conf.blockSize, conf.initialBlockCapacity, conf.maxBufferCapacity, conf.flags, conf.compression)
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
