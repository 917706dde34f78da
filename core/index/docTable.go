package index

import (
	"fmt"
	"io"

	"github.com/ironsweet/gosearch/core/codec"
	"github.com/ironsweet/gosearch/core/store"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
)

const (
	DOC_TABLE_CODEC         = "DocTable"
	DOC_TABLE_VERSION_START = 0
	DOC_TABLE_VERSION       = DOC_TABLE_VERSION_START
)

var ErrDuplicateKey = errors.New("document key already exists")

type DocFlags uint8

const (
	DOC_DELETED = DocFlags(1 << iota)
	DOC_HAS_PAYLOAD
)

// Per document data kept outside the posting lists.
type DocumentMetadata struct {
	Id      DocId
	Key     string
	Score   float32
	Flags   DocFlags
	Payload []byte
}

func (md *DocumentMetadata) String() string {
	return fmt.Sprintf("Doc(id=%v, key=%q, score=%v, flags=%#x, payload=%v bytes)",
		md.Id, md.Key, md.Score, md.Flags, len(md.Payload))
}

/*
DocTable maps external document keys to the internal doc ids used in
posting lists. Ids are assigned in increasing order starting at 1 and
are never reused, even after a delete.

DocTable is not safe for concurrent use.
*/
type DocTable struct {
	docs  map[DocId]*DocumentMetadata
	keys  map[string]DocId
	maxId DocId
}

func NewDocTable() *DocTable {
	return &DocTable{
		docs: make(map[DocId]*DocumentMetadata),
		keys: make(map[string]DocId),
	}
}

// Number of live documents.
func (dt *DocTable) Size() int {
	return len(dt.docs)
}

// The highest id handed out so far.
func (dt *DocTable) MaxId() DocId {
	return dt.maxId
}

/*
Registers a new document and returns its id. The payload is copied.
Fails with ErrDuplicateKey if key is already registered.
*/
func (dt *DocTable) Put(key string, score float32, flags DocFlags, payload []byte) (DocId, error) {
	if id, ok := dt.keys[key]; ok {
		return 0, errors.Wrapf(ErrDuplicateKey, "%q is doc %v", key, id)
	}
	if dt.maxId >= MAX_DOC_ID {
		return 0, errors.Errorf("doc ids exhausted at %v", dt.maxId)
	}
	dt.maxId++
	md := &DocumentMetadata{
		Id:    dt.maxId,
		Key:   key,
		Score: score,
		Flags: flags &^ (DOC_DELETED | DOC_HAS_PAYLOAD),
	}
	if len(payload) > 0 {
		md.Payload = append([]byte(nil), payload...)
		md.Flags |= DOC_HAS_PAYLOAD
	}
	dt.docs[md.Id] = md
	dt.keys[key] = md.Id
	return md.Id, nil
}

// Returns nil for unknown or deleted ids.
func (dt *DocTable) Get(id DocId) *DocumentMetadata {
	return dt.docs[id]
}

// Returns 0 if no live document has the key.
func (dt *DocTable) GetByKey(key string) DocId {
	return dt.keys[key]
}

/*
Marks the document deleted and forgets its key. Postings of the doc
stay in the inverted indexes; readers are expected to filter them with
Get. Returns false if the key is unknown.
*/
func (dt *DocTable) Delete(key string) bool {
	id, ok := dt.keys[key]
	if !ok {
		return false
	}
	dt.docs[id].Flags |= DOC_DELETED
	delete(dt.docs, id)
	delete(dt.keys, key)
	return true
}

/*
Serializes the live documents to w, in id order.

	DocTable --> Header,MaxId,NumDocs,Doc^NumDocs,Footer
		MaxId --> VLong
		NumDocs --> VInt
		Doc --> Id,Key,Score,Flags,Payload?
			Id --> VLong
			Key --> String
			Score --> Float32
			Flags --> byte
			Payload --> VInt length followed by bytes, if DOC_HAS_PAYLOAD
*/
func (dt *DocTable) Encode(w io.Writer) (int, error) {
	b, err := store.NewBuffer(64 + 32*len(dt.docs))
	if err != nil {
		return 0, err
	}
	defer b.Release()

	out := util.NewDataOutput(store.NewBufferWriter(b))
	if err = codec.WriteHeader(out, DOC_TABLE_CODEC, DOC_TABLE_VERSION); err != nil {
		return 0, err
	}
	if err = out.WriteVLong(int64(dt.maxId)); err == nil {
		err = out.WriteVInt(int32(len(dt.docs)))
	}
	for id := DocId(1); err == nil && id <= dt.maxId; id++ {
		if md, ok := dt.docs[id]; ok {
			err = encodeDoc(out, md)
		}
	}
	if err != nil {
		return 0, errors.Wrap(err, "encode doc table")
	}
	if err = codec.WriteFooter(b); err != nil {
		return 0, err
	}
	return w.Write(b.Bytes())
}

func encodeDoc(out *util.DataOutputImpl, md *DocumentMetadata) error {
	err := out.WriteVLong(int64(md.Id))
	if err == nil {
		err = out.WriteString(md.Key)
	}
	if err == nil {
		err = out.WriteFloat32(md.Score)
	}
	if err == nil {
		err = out.WriteByte(byte(md.Flags))
	}
	if err == nil && md.Flags&DOC_HAS_PAYLOAD != 0 {
		if err = out.WriteVInt(int32(len(md.Payload))); err == nil {
			err = out.WriteBytes(md.Payload)
		}
	}
	return err
}

// Rebuilds a table serialized by Encode. data is not retained.
func DecodeDocTable(data []byte) (*DocTable, error) {
	return decodeDocTable(store.WrapBuffer(data, store.BORROWED))
}

func (dt *DocTable) Save(dir store.Directory, name string) error {
	out, err := dir.CreateOutput(name)
	if err != nil {
		return err
	}
	if _, err = dt.Encode(out); err != nil {
		out.Close()
		return errors.Wrapf(err, "save %v", name)
	}
	if err = out.Close(); err != nil {
		return err
	}
	return dir.Sync([]string{name})
}

func OpenDocTable(dir store.Directory, name string) (*DocTable, error) {
	b, err := dir.OpenBuffer(name)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	dt, err := decodeDocTable(b)
	if err != nil {
		return nil, errors.Wrapf(err, "open %v", name)
	}
	return dt, nil
}

func decodeDocTable(b *store.Buffer) (*DocTable, error) {
	if _, err := codec.CheckFooter(b); err != nil {
		return nil, err
	}
	r := store.NewBufferReader(b)
	r.Seek(0)
	in := util.NewDataInput(r)
	if _, err := codec.CheckHeader(in, DOC_TABLE_CODEC, DOC_TABLE_VERSION_START, DOC_TABLE_VERSION); err != nil {
		return nil, err
	}

	maxId, err := in.ReadVLong()
	if err != nil {
		return nil, err
	}
	n, err := in.ReadVInt()
	if err != nil {
		return nil, err
	}
	if n < 0 || maxId < 0 || int64(n) > maxId {
		return nil, errors.Wrapf(codec.ErrCorrupt, "%v docs with max id %v", n, maxId)
	}

	dt := NewDocTable()
	dt.maxId = DocId(maxId)
	var prev DocId
	for i := 0; i < int(n); i++ {
		md, err := decodeDoc(in, b)
		if err != nil {
			return nil, errors.Wrapf(err, "decode doc %v", i)
		}
		if md.Id <= prev || md.Id > dt.maxId || md.Flags&DOC_DELETED != 0 {
			return nil, errors.Wrapf(codec.ErrCorrupt, "bad doc %v", md)
		}
		if _, ok := dt.keys[md.Key]; ok {
			return nil, errors.Wrapf(codec.ErrCorrupt, "key %q appears twice", md.Key)
		}
		dt.docs[md.Id] = md
		dt.keys[md.Key] = md.Id
		prev = md.Id
	}
	if end := b.Capacity() - codec.FOOTER_LENGTH; b.Offset() != end {
		return nil, errors.Wrapf(codec.ErrCorrupt, "doc table ends at %v, expected %v", b.Offset(), end)
	}
	return dt, nil
}

func decodeDoc(in *util.DataInputImpl, b *store.Buffer) (*DocumentMetadata, error) {
	id, err := in.ReadVLong()
	if err != nil {
		return nil, err
	}
	md := &DocumentMetadata{Id: DocId(id)}
	if md.Key, err = in.ReadString(); err != nil {
		return nil, err
	}
	if md.Score, err = in.ReadFloat32(); err != nil {
		return nil, err
	}
	flags, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	md.Flags = DocFlags(flags)
	if md.Flags&DOC_HAS_PAYLOAD != 0 {
		length, err := in.ReadVInt()
		if err != nil {
			return nil, err
		}
		if length < 0 || int(length) > b.Capacity()-b.Offset() {
			return nil, errors.Wrapf(codec.ErrCorrupt, "bad payload length %v", length)
		}
		md.Payload = make([]byte, length)
		if err = in.ReadBytes(md.Payload); err != nil {
			return nil, err
		}
	}
	return md, nil
}
