package index

import (
	"io"

	"github.com/ironsweet/gosearch/core/codec"
	"github.com/ironsweet/gosearch/core/codec/compressing"
	"github.com/ironsweet/gosearch/core/store"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("index")

const (
	INVERTED_INDEX_CODEC         = "InvertedIndex"
	INVERTED_INDEX_VERSION_START = 0
	INVERTED_INDEX_VERSION       = INVERTED_INDEX_VERSION_START
)

/*
InvertedIndex is the posting list of one term: postings in ascending
doc id order, split into blocks of at most BlockSize() documents.
A block that fills up is shrunk to fit before the next one is opened,
so only the last block carries spare capacity.

InvertedIndex is not safe for concurrent use.
*/
type InvertedIndex struct {
	conf    *IndexConfig
	blocks  []*IndexBlock
	lastId  DocId
	numDocs int
	scratch *store.Buffer
}

func NewInvertedIndex(conf *IndexConfig) *InvertedIndex {
	return &InvertedIndex{conf: conf.clone()}
}

func (idx *InvertedIndex) Config() *IndexConfig {
	return idx.conf.clone()
}

func (idx *InvertedIndex) NumDocs() int {
	return idx.numDocs
}

func (idx *InvertedIndex) LastId() DocId {
	return idx.lastId
}

func (idx *InvertedIndex) NumBlocks() int {
	return len(idx.blocks)
}

func (idx *InvertedIndex) Block(i int) *IndexBlock {
	return idx.blocks[i]
}

// Total capacity of the block buffers, in bytes.
func (idx *InvertedIndex) MemoryUsage() (n int) {
	for _, blk := range idx.blocks {
		n += blk.Capacity()
	}
	return
}

/*
Appends a posting and returns the number of bytes it took. Doc ids must
be strictly increasing. If the posting cannot be written, nothing of it
is kept and the index is unchanged.
*/
func (idx *InvertedIndex) WriteEntry(p *Posting) (int, error) {
	if p.DocId > MAX_DOC_ID {
		return 0, errors.Errorf("doc id %v exceeds %v", p.DocId, MAX_DOC_ID)
	}
	if idx.numDocs > 0 && p.DocId <= idx.lastId {
		return 0, errors.Errorf("doc ids must be strictly increasing: %v after %v", p.DocId, idx.lastId)
	}
	if idx.scratch == nil {
		var err error
		if idx.scratch, err = store.NewBuffer(64); err != nil {
			return 0, err
		}
	}

	blk, opened, err := idx.openBlock()
	if err != nil {
		return 0, err
	}
	prev := blk.LastId
	if blk.NumDocs == 0 {
		prev = p.DocId
	}
	out := util.NewDataOutput(blk.writer())
	if err = encodePosting(out, prev, p, idx.conf.flags, idx.scratch); err != nil {
		if opened {
			idx.dropLastBlock()
		} else {
			blk.rollback()
		}
		return 0, errors.Wrapf(err, "write doc %v", p.DocId)
	}
	if opened {
		idx.compactFullBlock()
	}

	n := blk.buf.Offset() - blk.size
	blk.size = blk.buf.Offset()
	if blk.NumDocs == 0 {
		blk.FirstId = p.DocId
	}
	blk.LastId = p.DocId
	blk.NumDocs++
	idx.lastId = p.DocId
	idx.numDocs++
	return n, nil
}

// Returns the block the next posting goes to. If the last block is
// full a new one is appended, and opened is true.
func (idx *InvertedIndex) openBlock() (blk *IndexBlock, opened bool, err error) {
	if n := len(idx.blocks); n > 0 && idx.blocks[n-1].NumDocs < idx.conf.blockSize {
		return idx.blocks[n-1], false, nil
	}
	if blk, err = newIndexBlock(idx.conf); err != nil {
		return nil, false, err
	}
	idx.blocks = append(idx.blocks, blk)
	log.Debugf("opened block %v of inverted index (%v docs)", len(idx.blocks), idx.numDocs)
	return blk, true, nil
}

// Undoes openBlock after the first posting of the new block failed.
func (idx *InvertedIndex) dropLastBlock() {
	n := len(idx.blocks)
	if err := idx.blocks[n-1].release(); err != nil {
		log.Warningf("releasing empty block: %v", err)
	}
	idx.blocks[n-1] = nil
	idx.blocks = idx.blocks[:n-1]
}

// Shrinks the block before the last one, which just became full.
func (idx *InvertedIndex) compactFullBlock() {
	n := len(idx.blocks)
	if n < 2 {
		return
	}
	full := idx.blocks[n-2]
	if err := full.compact(); err != nil {
		// the block is still intact, just larger than needed
		log.Warningf("cannot shrink %v: %v", full, err)
	}
}

// Shrinks every block buffer to its encoded postings.
func (idx *InvertedIndex) Compact() error {
	for i, blk := range idx.blocks {
		if err := blk.compact(); err != nil {
			return errors.Wrapf(err, "compact block %v", i)
		}
	}
	return nil
}

// Releases all block buffers. The index is empty afterwards.
func (idx *InvertedIndex) Release() (err error) {
	for _, blk := range idx.blocks {
		if e := blk.release(); e != nil && err == nil {
			err = e
		}
	}
	if idx.scratch != nil {
		idx.scratch.Release()
		idx.scratch = nil
	}
	idx.blocks, idx.lastId, idx.numDocs = nil, 0, 0
	return
}

/*
Serializes the index to w and returns the number of bytes written.

	InvertedIndex --> Header,Flags,Compression,LastId,NumDocs,NumBlocks,Block^NumBlocks,Footer
		Header --> codec.WriteHeader(INVERTED_INDEX_CODEC)
		Flags, Compression, NumBlocks --> VInt
		LastId, NumDocs --> VLong
		Block --> FirstId,LastId,NumDocs,Size,CompressedSize,Payload
			FirstId, LastId --> VLong
			NumDocs, Size, CompressedSize --> VInt
			Payload --> the block's postings compressed with Compression
		Footer --> codec.WriteFooter
*/
func (idx *InvertedIndex) Encode(w io.Writer) (int, error) {
	b, err := store.NewBuffer(1024)
	if err != nil {
		return 0, err
	}
	defer b.Release()
	payload, err := store.NewBuffer(1024)
	if err != nil {
		return 0, err
	}
	defer payload.Release()

	out := util.NewDataOutput(store.NewBufferWriter(b))
	if err = codec.WriteHeader(out, INVERTED_INDEX_CODEC, INVERTED_INDEX_VERSION); err != nil {
		return 0, err
	}
	if err = writeVInts(out, int32(idx.conf.flags), int32(idx.conf.compression)); err != nil {
		return 0, err
	}
	if err = out.WriteVLong(int64(idx.lastId)); err != nil {
		return 0, err
	}
	if err = out.WriteVLong(int64(idx.numDocs)); err != nil {
		return 0, err
	}
	if err = out.WriteVInt(int32(len(idx.blocks))); err != nil {
		return 0, err
	}

	compress := idx.conf.compression.NewCompressor()
	for i, blk := range idx.blocks {
		raw := blk.bytes()
		store.NewBufferReader(payload).Seek(0)
		if err = compress(raw, store.NewBufferWriter(payload)); err != nil {
			return 0, errors.Wrapf(err, "compress block %v", i)
		}
		if err = out.WriteVLong(int64(blk.FirstId)); err == nil {
			if err = out.WriteVLong(int64(blk.LastId)); err == nil {
				err = writeVInts(out, int32(blk.NumDocs), int32(len(raw)), int32(payload.Offset()))
			}
		}
		if err == nil {
			err = out.WriteBytes(payload.Bytes())
		}
		if err != nil {
			return 0, errors.Wrapf(err, "encode block %v", i)
		}
	}
	if err = codec.WriteFooter(b); err != nil {
		return 0, err
	}
	return w.Write(b.Bytes())
}

func writeVInts(out util.DataOutput, values ...int32) error {
	for _, v := range values {
		if err := out.WriteVInt(v); err != nil {
			return err
		}
	}
	return nil
}

/*
Rebuilds an index serialized by Encode. conf supplies the buffer
settings for the decoded blocks; flags and compression are taken from
the data. data is only read, never retained.
*/
func DecodeInvertedIndex(data []byte, conf *IndexConfig) (*InvertedIndex, error) {
	return decodeInvertedIndex(store.WrapBuffer(data, store.BORROWED), conf)
}

// Writes the index to a new file of dir and syncs it.
func (idx *InvertedIndex) Save(dir store.Directory, name string) error {
	out, err := dir.CreateOutput(name)
	if err != nil {
		return err
	}
	if _, err = idx.Encode(out); err != nil {
		out.Close()
		return errors.Wrapf(err, "save %v", name)
	}
	if err = out.Close(); err != nil {
		return err
	}
	return dir.Sync([]string{name})
}

// Loads an index written by Save.
func OpenInvertedIndex(dir store.Directory, name string, conf *IndexConfig) (*InvertedIndex, error) {
	b, err := dir.OpenBuffer(name)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	idx, err := decodeInvertedIndex(b, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "open %v", name)
	}
	return idx, nil
}

// Decoded blocks never alias b.
func decodeInvertedIndex(b *store.Buffer, conf *IndexConfig) (*InvertedIndex, error) {
	if _, err := codec.CheckFooter(b); err != nil {
		return nil, err
	}
	r := store.NewBufferReader(b)
	r.Seek(0)
	in := util.NewDataInput(r)
	if _, err := codec.CheckHeader(in, INVERTED_INDEX_CODEC,
		INVERTED_INDEX_VERSION_START, INVERTED_INDEX_VERSION); err != nil {
		return nil, err
	}

	var header [3]int32
	var lastId, numDocs int64
	err := readVInts(in, &header[0], &header[1])
	if err == nil {
		if lastId, err = in.ReadVLong(); err == nil {
			if numDocs, err = in.ReadVLong(); err == nil {
				err = readVInts(in, &header[2])
			}
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "decode inverted index header")
	}
	numBlocks := int(header[2])
	if numBlocks < 0 {
		return nil, errors.Wrapf(codec.ErrCorrupt, "negative block count %v", numBlocks)
	}

	mode := compressing.CompressionMode(header[1])
	if mode < compressing.COMPRESSION_MODE_NONE || mode > compressing.COMPRESSION_MODE_ZSTD {
		return nil, errors.Wrapf(codec.ErrCorrupt, "unknown compression mode %v", header[1])
	}

	if lastId < 0 || numDocs < 0 {
		return nil, errors.Wrapf(codec.ErrCorrupt, "bad header: lastId=%v numDocs=%v", lastId, numDocs)
	}

	idx := NewInvertedIndex(conf)
	idx.conf.flags = IndexFlags(header[0])
	idx.conf.compression = mode
	idx.lastId, idx.numDocs = DocId(lastId), int(numDocs)
	decompress := idx.conf.compression.NewDecompressor()
	end := b.Capacity() - codec.FOOTER_LENGTH

	total := 0
	for i := 0; i < numBlocks; i++ {
		blk, err := decodeBlock(r, in, end, decompress, idx.conf)
		if err != nil {
			log.Errorf("cannot decode block %v of %v: %v", i, numBlocks, err)
			idx.Release()
			return nil, errors.Wrapf(err, "decode block %v", i)
		}
		idx.blocks = append(idx.blocks, blk)
		total += blk.NumDocs
	}
	if total != idx.numDocs || b.Offset() != end {
		idx.Release()
		return nil, errors.Wrapf(codec.ErrCorrupt,
			"%v docs in blocks vs %v declared, stopped at %v of %v bytes",
			total, numDocs, b.Offset(), end)
	}
	return idx, nil
}

func decodeBlock(r *store.BufferReader, in *util.DataInputImpl, end int,
	decompress func([]byte, int) ([]byte, error), conf *IndexConfig) (*IndexBlock, error) {

	first, err := in.ReadVLong()
	if err != nil {
		return nil, err
	}
	last, err := in.ReadVLong()
	if err != nil {
		return nil, err
	}
	var counts [3]int32
	if err = readVInts(in, &counts[0], &counts[1], &counts[2]); err != nil {
		return nil, err
	}
	numDocs, size, compressed := int(counts[0]), int(counts[1]), int(counts[2])
	if first < 0 || first > last || numDocs < 0 || size < 0 || compressed < 0 || compressed > end-r.Buffer().Offset() {
		return nil, errors.Wrapf(codec.ErrCorrupt,
			"bad block: first=%v last=%v docs=%v size=%v compressed=%v", first, last, numDocs, size, compressed)
	}
	if conf.maxBufferCapacity != UNLIMITED_BUFFER_CAPACITY && size > conf.maxBufferCapacity {
		return nil, errors.Wrapf(store.ErrCapacityExceeded, "block of %v bytes, limit is %v", size, conf.maxBufferCapacity)
	}
	payload := make([]byte, compressed)
	if err = in.ReadBytes(payload); err != nil {
		return nil, err
	}
	raw, err := decompress(payload, size)
	if err != nil {
		return nil, err
	}
	return &IndexBlock{
		FirstId: DocId(first),
		LastId:  DocId(last),
		NumDocs: numDocs,
		size:    size,
		buf:     store.WrapBuffer(raw, store.OWNED, conf.bufferOptions()...),
	}, nil
}

func readVInts(in util.DataInput, dst ...*int32) (err error) {
	for _, p := range dst {
		if *p, err = in.ReadVInt(); err != nil {
			return
		}
	}
	return
}
