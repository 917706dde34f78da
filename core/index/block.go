package index

import (
	"fmt"

	"github.com/ironsweet/gosearch/core/store"
)

/*
IndexBlock holds the encoded postings of a run of consecutive
documents. Postings occupy the first Size() bytes of the block buffer;
the remaining capacity is room for appends.

The buffer's position is shared by whoever last wrote or read it, so
the block does not rely on it: appends first move it back to Size(),
and readers seek to their own position before every decode.
*/
type IndexBlock struct {
	FirstId DocId
	LastId  DocId
	NumDocs int
	size    int
	buf     *store.Buffer
}

func newIndexBlock(conf *IndexConfig) (*IndexBlock, error) {
	buf, err := store.NewBuffer(conf.initialBlockCapacity, conf.bufferOptions()...)
	if err != nil {
		return nil, err
	}
	return &IndexBlock{buf: buf}, nil
}

// Number of bytes of encoded postings.
func (blk *IndexBlock) Size() int {
	return blk.size
}

func (blk *IndexBlock) Capacity() int {
	return blk.buf.Capacity()
}

func (blk *IndexBlock) Buffer() *store.Buffer {
	return blk.buf
}

// Returns a writer that appends right after the last posting.
func (blk *IndexBlock) writer() *store.BufferWriter {
	if blk.buf.Offset() != blk.size {
		store.NewBufferReader(blk.buf).Seek(blk.size)
	}
	return store.NewBufferWriter(blk.buf)
}

// Drops anything written after the last complete posting.
func (blk *IndexBlock) rollback() {
	store.NewBufferReader(blk.buf).Seek(blk.size)
}

// The encoded postings. Invalid after the next append.
func (blk *IndexBlock) bytes() []byte {
	store.NewBufferReader(blk.buf).Seek(blk.size)
	return blk.buf.Bytes()
}

// Shrinks the buffer to the encoded postings.
func (blk *IndexBlock) compact() error {
	store.NewBufferReader(blk.buf).Seek(blk.size)
	_, err := blk.buf.Truncate(0)
	return err
}

func (blk *IndexBlock) release() error {
	return blk.buf.Release()
}

func (blk *IndexBlock) String() string {
	return fmt.Sprintf("IndexBlock(first=%v, last=%v, docs=%v, size=%v, cap=%v)",
		blk.FirstId, blk.LastId, blk.NumDocs, blk.size, blk.buf.Capacity())
}
