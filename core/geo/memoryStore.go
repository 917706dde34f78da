package geo

import (
	"context"
	"slices"

	"github.com/ironsweet/gosearch/core/index"
	"github.com/ironsweet/gosearch/core/store"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
)

/*
MemoryGeoStore keeps the points of each key as a log of entries in a
store.Buffer:

	Entry --> DocId,Hash
		DocId --> VLong
		Hash --> VLong, see EncodeHash

A later entry for the same document replaces earlier ones. Searches
scan the whole log, so it suits small indexes and tests.

MemoryGeoStore is not safe for concurrent use.
*/
type MemoryGeoStore struct {
	logs map[string]*entryLog
	opts []store.BufferOption
}

type entryLog struct {
	buf  *store.Buffer
	size int
}

// opts apply to the buffers backing each key.
func NewMemoryGeoStore(opts ...store.BufferOption) *MemoryGeoStore {
	return &MemoryGeoStore{logs: make(map[string]*entryLog), opts: opts}
}

func (s *MemoryGeoStore) Add(_ context.Context, key string, docId index.DocId, lon, lat float64) error {
	if docId > index.MAX_DOC_ID {
		return errors.Errorf("doc id %v exceeds %v", docId, index.MAX_DOC_ID)
	}
	l, ok := s.logs[key]
	if !ok {
		buf, err := store.NewBuffer(64, s.opts...)
		if err != nil {
			return err
		}
		l = &entryLog{buf: buf}
		s.logs[key] = l
	}
	store.NewBufferReader(l.buf).Seek(l.size)
	if err := writeEntry(util.NewDataOutput(store.NewBufferWriter(l.buf)), docId, EncodeHash(lon, lat)); err != nil {
		return err
	}
	l.size = l.buf.Offset()
	return nil
}

func writeEntry(out *util.DataOutputImpl, docId index.DocId, hash uint64) error {
	if err := out.WriteVLong(int64(docId)); err != nil {
		return err
	}
	return out.WriteVLong(int64(hash))
}

// Rewrites the log without the document's entries.
func (s *MemoryGeoStore) Remove(_ context.Context, key string, docId index.DocId) error {
	l, ok := s.logs[key]
	if !ok {
		return nil
	}
	points, err := l.points()
	if err != nil {
		return err
	}
	if _, ok := points[docId]; !ok {
		return nil
	}
	delete(points, docId)

	buf, err := store.NewBuffer(l.size, s.opts...)
	if err != nil {
		return err
	}
	out := util.NewDataOutput(store.NewBufferWriter(buf))
	for _, id := range sortedIds(points) {
		if err = writeEntry(out, id, points[id]); err != nil {
			buf.Release()
			return err
		}
	}
	if err = l.buf.Release(); err != nil {
		log.Warningf("releasing old log of %v: %v", key, err)
	}
	l.buf, l.size = buf, buf.Offset()
	return nil
}

func (s *MemoryGeoStore) Search(_ context.Context, key string, f *GeoFilter) ([]index.DocId, error) {
	l, ok := s.logs[key]
	if !ok {
		return nil, nil
	}
	points, err := l.points()
	if err != nil {
		return nil, err
	}
	radius := f.RadiusMeters()
	var ids []index.DocId
	for _, id := range sortedIds(points) {
		lon, lat := DecodeHash(points[id])
		if Distance(f.Lon, f.Lat, lon, lat) <= radius {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Number of documents with a point under key.
func (s *MemoryGeoStore) Len(key string) int {
	l, ok := s.logs[key]
	if !ok {
		return 0
	}
	points, err := l.points()
	if err != nil {
		log.Warningf("cannot replay log of %v: %v", key, err)
	}
	return len(points)
}

// Releases all buffers and returns the first release error.
func (s *MemoryGeoStore) Close() (err error) {
	for key, l := range s.logs {
		if e := l.buf.Release(); e != nil {
			log.Warningf("releasing log of %v: %v", key, e)
			if err == nil {
				err = errors.Wrapf(e, "close %v", key)
			}
		}
		delete(s.logs, key)
	}
	return
}

// Replays the log into the latest hash per document.
func (l *entryLog) points() (map[index.DocId]uint64, error) {
	r := store.NewBufferReader(l.buf)
	r.Seek(0)
	in := util.NewDataInput(r)
	points := make(map[index.DocId]uint64)
	for l.buf.Offset() < l.size {
		id, err := in.ReadVLong()
		if err != nil {
			return nil, err
		}
		hash, err := in.ReadVLong()
		if err != nil {
			return nil, err
		}
		points[index.DocId(id)] = uint64(hash)
	}
	return points, nil
}

func sortedIds(points map[index.DocId]uint64) []index.DocId {
	ids := make([]index.DocId, 0, len(points))
	for id := range points {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
