package index

import (
	"io"
	"sort"

	"github.com/ironsweet/gosearch/core/store"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
)

/*
IndexReader decodes the postings of an InvertedIndex in doc id order.

The reader remembers its own position inside the current block and
seeks the block buffer to it before every decode, so appends to the
index, or other readers, between two calls do not disturb it. Postings
appended after the reader passed their block are not seen.
*/
type IndexReader struct {
	idx         *InvertedIndex
	withOffsets bool

	blockIdx int
	pos      int
	lastId   DocId
	r        *store.BufferReader
	in       *util.DataInputImpl
	record   Posting
}

/*
Returns a reader positioned before the first posting. Term offsets are
decoded only if withOffsets is set; otherwise they are skipped over.
*/
func (idx *InvertedIndex) NewReader(withOffsets bool) *IndexReader {
	ir := &IndexReader{idx: idx, withOffsets: withOffsets}
	ir.Reset()
	return ir
}

// Rewinds to the first posting.
func (ir *IndexReader) Reset() {
	ir.seekBlock(0)
}

func (ir *IndexReader) seekBlock(i int) {
	ir.blockIdx, ir.pos, ir.r, ir.in = i, 0, nil, nil
}

/*
Returns the next posting, or io.EOF once all postings have been read.
The returned Posting is reused by the next call.
*/
func (ir *IndexReader) Read() (*Posting, error) {
	blocks := ir.idx.blocks
	for ir.blockIdx < len(blocks) {
		blk := blocks[ir.blockIdx]
		if ir.r == nil {
			ir.r = store.NewBufferReader(blk.buf)
			ir.in = util.NewDataInput(ir.r)
			ir.lastId = blk.FirstId
		}
		if ir.pos < blk.size {
			ir.r.Seek(ir.pos)
			err := decodePosting(ir.r, ir.in, ir.lastId, &ir.record, ir.idx.conf.flags, ir.withOffsets)
			if err != nil || blk.buf.Offset() > blk.size {
				return nil, errors.Wrapf(orCorrupt(err), "block %v at %v", ir.blockIdx, ir.pos)
			}
			ir.pos = blk.buf.Offset()
			ir.lastId = ir.record.DocId
			return &ir.record, nil
		}
		ir.seekBlock(ir.blockIdx + 1)
	}
	return nil, io.EOF
}

/*
Returns the first posting with a doc id >= docId, or io.EOF if there is
none. Whole blocks whose last doc id is smaller are skipped without
being decoded. The reader never moves backwards: a docId below the
current position returns the next posting.
*/
func (ir *IndexReader) SkipTo(docId DocId) (*Posting, error) {
	blocks := ir.idx.blocks
	if ir.blockIdx < len(blocks) && blocks[ir.blockIdx].LastId < docId {
		n := sort.Search(len(blocks)-ir.blockIdx-1, func(i int) bool {
			return blocks[ir.blockIdx+1+i].LastId >= docId
		})
		ir.seekBlock(ir.blockIdx + 1 + n)
	}
	for {
		p, err := ir.Read()
		if err != nil {
			return nil, err
		}
		if p.DocId >= docId {
			return p, nil
		}
	}
}

func orCorrupt(err error) error {
	if err == nil {
		return errors.New("posting overruns its block")
	}
	return err
}
