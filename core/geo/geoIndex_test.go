package geo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ironsweet/gosearch/core/index"
	"github.com/ironsweet/gosearch/core/store"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeoIndex(t *testing.T, gi *GeoIndex) {
	ctx := context.Background()
	require.NoError(t, gi.AddStrings(ctx, 1, "13.361389", "38.115556")) // Palermo
	require.NoError(t, gi.AddStrings(ctx, 2, "15.087269", "37.502669")) // Catania
	require.NoError(t, gi.AddStrings(ctx, 3, "2.3522", "48.8566"))      // Paris

	ids, err := gi.Range(ctx, NewGeoFilter(15, 37, 200, UNIT_KM))
	require.NoError(t, err)
	assert.Equal(t, []index.DocId{1, 2}, ids)

	ids, err = gi.Range(ctx, NewGeoFilter(15, 37, 100000, UNIT_M))
	require.NoError(t, err)
	assert.Equal(t, []index.DocId{2}, ids)

	ids, err = gi.Range(ctx, NewGeoFilter(15, 37, 10, UNIT_KM))
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, gi.RemoveEntries(ctx, 2))
	require.NoError(t, gi.RemoveEntries(ctx, 42))
	ids, err = gi.Range(ctx, NewGeoFilter(15, 37, 200, UNIT_KM))
	require.NoError(t, err)
	assert.Equal(t, []index.DocId{1}, ids)

	// moving a document replaces its point
	require.NoError(t, gi.AddStrings(ctx, 1, "2.35", "48.85"))
	ids, err = gi.Range(ctx, NewGeoFilter(2.3522, 48.8566, 1, UNIT_MI))
	require.NoError(t, err)
	assert.Equal(t, []index.DocId{1, 3}, ids)
	ids, err = gi.Range(ctx, NewGeoFilter(15, 37, 200, UNIT_KM))
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, coords := range [][2]string{{"abc", "1"}, {"1", ""}, {"200", "1"}, {"1", "86"}} {
		err := gi.AddStrings(ctx, 9, coords[0], coords[1])
		assert.True(t, errors.Is(err, ErrInvalidFilter), "%v: %v", coords, err)
	}
	_, err = gi.Range(ctx, NewGeoFilter(15, 37, 0, UNIT_KM))
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}

func TestMemoryGeoStore(t *testing.T) {
	s := NewMemoryGeoStore()
	defer s.Close()
	gi := NewGeoIndex(s, NewGeoConfig(), "idx", "location")
	assert.Equal(t, "geo:idx/location", gi.Key())

	testGeoIndex(t, gi)
	assert.Equal(t, 2, s.Len(gi.Key()))
	assert.Equal(t, 0, s.Len("geo:idx/other"))
}

func TestMemoryGeoStoreKeysAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGeoStore()
	defer s.Close()
	conf := NewGeoConfig()
	a := NewGeoIndex(s, conf, "idx", "home")
	b := NewGeoIndex(s, conf, "idx", "work")

	require.NoError(t, a.AddStrings(ctx, 1, "10", "10"))
	require.NoError(t, b.AddStrings(ctx, 2, "10", "10"))
	ids, err := a.Range(ctx, NewGeoFilter(10, 10, 1, UNIT_KM))
	require.NoError(t, err)
	assert.Equal(t, []index.DocId{1}, ids)
}

func TestMemoryGeoStoreAllocationFailure(t *testing.T) {
	ctx := context.Background()
	tracker := store.NewTrackingAllocator(store.HEAP_ALLOCATOR, util.NewCounter(), 32)
	s := NewMemoryGeoStore(store.WithAllocator(tracker))
	defer s.Close()
	gi := NewGeoIndex(s, NewGeoConfig(), "idx", "location")

	err := gi.AddStrings(ctx, 1, "10", "10")
	assert.True(t, store.IsAllocationError(err), "%v", err)
	ids, err := gi.Range(ctx, NewGeoFilter(10, 10, 1, UNIT_KM))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryGeoStoreBrokenLog(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGeoStore()
	require.NoError(t, s.Add(ctx, "k", 1, 10, 10))
	assert.Error(t, s.Add(ctx, "k", index.MAX_DOC_ID+1, 10, 10))
	assert.Equal(t, 1, s.Len("k"))

	l := s.logs["k"]
	store.NewBufferReader(l.buf).Seek(0)
	_, err := store.NewBufferWriter(l.buf).Write([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	l.size = l.buf.Offset()

	assert.Equal(t, 0, s.Len("k"))
	_, err = s.Search(ctx, "k", NewGeoFilter(10, 10, 1, UNIT_KM))
	assert.Error(t, err)

	require.NoError(t, l.buf.Release())
	assert.True(t, errors.Is(s.Close(), store.ErrReleased))
	assert.Equal(t, 0, s.Len("k"))
}

func TestRedisGeoStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisGeoStore(rdb)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())
	gi := NewGeoIndex(s, NewGeoConfig(), fmt.Sprintf("test%d", time.Now().UnixNano()), "location")
	defer s.Drop(ctx, gi.Key())

	testGeoIndex(t, gi)
}
