package geo

import (
	"context"
	"strconv"

	"github.com/ironsweet/gosearch/core/index"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("geo")

// GeoStore keeps the points of geo indexes, one set of points per key.
type GeoStore interface {
	// Records the point of a document, replacing any earlier one.
	Add(ctx context.Context, key string, docId index.DocId, lon, lat float64) error
	// Forgets the point of a document. Unknown documents are ignored.
	Remove(ctx context.Context, key string, docId index.DocId) error
	// Returns the documents within the filter's radius, ascending.
	Search(ctx context.Context, key string, f *GeoFilter) ([]index.DocId, error)
}

// GeoIndex is the geo index of one field of a search index.
type GeoIndex struct {
	store GeoStore
	index string
	field string
	key   string
}

func NewGeoIndex(store GeoStore, conf *GeoConfig, indexName, field string) *GeoIndex {
	return &GeoIndex{
		store: store,
		index: indexName,
		field: field,
		key:   conf.Key(indexName, field),
	}
}

// The store key the points live under.
func (gi *GeoIndex) Key() string {
	return gi.key
}

// Indexes a document at the point given as longitude and latitude text.
func (gi *GeoIndex) AddStrings(ctx context.Context, docId index.DocId, slon, slat string) error {
	lon, err := strconv.ParseFloat(slon, 64)
	if err != nil {
		return errors.Wrapf(ErrInvalidFilter, "doc %v: bad longitude %q", docId, slon)
	}
	lat, err := strconv.ParseFloat(slat, 64)
	if err != nil {
		return errors.Wrapf(ErrInvalidFilter, "doc %v: bad latitude %q", docId, slat)
	}
	if err = validateCoordinates(lon, lat); err != nil {
		return errors.Wrapf(err, "doc %v", docId)
	}
	if err = gi.store.Add(ctx, gi.key, docId, lon, lat); err != nil {
		return errors.Wrapf(err, "add doc %v to %v", docId, gi.key)
	}
	return nil
}

func (gi *GeoIndex) RemoveEntries(ctx context.Context, docId index.DocId) error {
	if err := gi.store.Remove(ctx, gi.key, docId); err != nil {
		return errors.Wrapf(err, "remove doc %v from %v", docId, gi.key)
	}
	return nil
}

/*
Returns the ids of the documents matching f, in ascending order so they
can be merged with posting lists.
*/
func (gi *GeoIndex) Range(ctx context.Context, f *GeoFilter) ([]index.DocId, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	ids, err := gi.store.Search(ctx, gi.key, f)
	if err != nil {
		return nil, errors.Wrapf(err, "search %v", gi.key)
	}
	log.Debugf("%v matched %v docs in %v", f, len(ids), gi.key)
	return ids, nil
}
