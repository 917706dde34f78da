package index

import (
	"fmt"
	"math"
	"strings"

	"github.com/ironsweet/gosearch/core/codec"
	"github.com/ironsweet/gosearch/core/store"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
)

type DocId uint64

// Ids are stored as VLongs, so they must fit in an int64.
const MAX_DOC_ID = DocId(math.MaxInt64)

// Selects the optional fields stored with each posting.
type IndexFlags uint32

const (
	INDEX_STORE_FREQS = IndexFlags(1 << iota)
	INDEX_STORE_FIELD_FLAGS
	INDEX_STORE_TERM_OFFSETS
)

func (f IndexFlags) String() string {
	var parts []string
	if f&INDEX_STORE_FREQS != 0 {
		parts = append(parts, "freqs")
	}
	if f&INDEX_STORE_FIELD_FLAGS != 0 {
		parts = append(parts, "fieldFlags")
	}
	if f&INDEX_STORE_TERM_OFFSETS != 0 {
		parts = append(parts, "offsets")
	}
	if len(parts) == 0 {
		return "docIdsOnly"
	}
	return strings.Join(parts, "|")
}

// One document's occurrence data for a term.
type Posting struct {
	DocId     DocId
	Freq      uint32
	FieldMask uint32
	// Term positions in the document, ascending.
	Offsets []uint32
}

func (p *Posting) String() string {
	return fmt.Sprintf("Posting(doc=%v, freq=%v, fields=%#x, offsets=%v)",
		p.DocId, p.Freq, p.FieldMask, p.Offsets)
}

/*
Encodes one posting relative to the previous doc id of its block.

	Posting --> DocDelta,Freq?,FieldMask?,(OffsetsLength,OffsetDelta^Freq)?
		DocDelta --> VLong, docId - previous docId
		Freq --> VInt, if INDEX_STORE_FREQS
		FieldMask --> VInt, if INDEX_STORE_FIELD_FLAGS
		OffsetsLength --> VInt, byte length of the offset deltas, so
		readers not interested in positions can skip them
		OffsetDelta --> VInt, if INDEX_STORE_TERM_OFFSETS
*/
func encodePosting(out *util.DataOutputImpl, prev DocId, p *Posting, flags IndexFlags, scratch *store.Buffer) error {
	err := out.WriteVLong(int64(p.DocId - prev))
	if err == nil && flags&INDEX_STORE_FREQS != 0 {
		err = out.WriteVInt(int32(p.Freq))
	}
	if err == nil && flags&INDEX_STORE_FIELD_FLAGS != 0 {
		err = out.WriteVInt(int32(p.FieldMask))
	}
	if err == nil && flags&INDEX_STORE_TERM_OFFSETS != 0 {
		err = encodeOffsets(out, p.Offsets, scratch)
	}
	return err
}

func encodeOffsets(out *util.DataOutputImpl, offsets []uint32, scratch *store.Buffer) error {
	store.NewBufferReader(scratch).Seek(0)
	tmp := util.NewDataOutput(store.NewBufferWriter(scratch))
	var last uint32
	for _, off := range offsets {
		if off < last {
			return errors.Errorf("term offsets out of order: %v after %v", off, last)
		}
		if err := tmp.WriteVInt(int32(off - last)); err != nil {
			return err
		}
		last = off
	}
	encoded := scratch.Bytes()
	if err := out.WriteVInt(int32(len(encoded))); err != nil {
		return err
	}
	return out.WriteBytes(encoded)
}

/*
Decodes the posting at the position of r into p. Offsets are decoded
only if withOffsets is set; otherwise the reader skips over them.
*/
func decodePosting(r *store.BufferReader, in *util.DataInputImpl, prev DocId, p *Posting, flags IndexFlags, withOffsets bool) error {
	delta, err := in.ReadVLong()
	if err != nil {
		return err
	}
	p.DocId = prev + DocId(delta)
	p.Freq, p.FieldMask, p.Offsets = 0, 0, p.Offsets[:0]
	if flags&INDEX_STORE_FREQS != 0 {
		n, err := in.ReadVInt()
		if err != nil {
			return err
		}
		p.Freq = uint32(n)
	}
	if flags&INDEX_STORE_FIELD_FLAGS != 0 {
		n, err := in.ReadVInt()
		if err != nil {
			return err
		}
		p.FieldMask = uint32(n)
	}
	if flags&INDEX_STORE_TERM_OFFSETS != 0 {
		length, err := in.ReadVInt()
		if err != nil {
			return err
		}
		if length < 0 {
			return errors.Wrapf(codec.ErrCorrupt, "negative offsets length %v", length)
		}
		if !withOffsets {
			start := r.Buffer().Offset()
			if r.Skip(int(length)) != start+int(length) {
				return store.ErrShortRead
			}
			return nil
		}
		end := r.Buffer().Offset() + int(length)
		var last uint32
		for r.Buffer().Offset() < end {
			n, err := in.ReadVInt()
			if err != nil {
				return err
			}
			last += uint32(n)
			p.Offsets = append(p.Offsets, last)
		}
	}
	return nil
}
