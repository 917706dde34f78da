package geo

import (
	"context"
	"slices"
	"strconv"

	"github.com/ironsweet/gosearch/core/index"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

/*
RedisGeoStore keeps points in Redis geo sets, one sorted set per key
with the doc ids as members. Redis stores the same 52-bit geohash as
EncodeHash, so both stores agree on which points match.
*/
type RedisGeoStore struct {
	rdb redis.UniversalClient
}

func NewRedisGeoStore(rdb redis.UniversalClient) *RedisGeoStore {
	return &RedisGeoStore{rdb: rdb}
}

// Connects to the server at url, e.g. redis://localhost:6379/0.
func OpenRedisGeoStore(url string) (*RedisGeoStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %v", url)
	}
	return NewRedisGeoStore(redis.NewClient(opt)), nil
}

func member(docId index.DocId) string {
	return strconv.FormatUint(uint64(docId), 10)
}

func (s *RedisGeoStore) Add(ctx context.Context, key string, docId index.DocId, lon, lat float64) error {
	return s.rdb.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      member(docId),
		Longitude: lon,
		Latitude:  lat,
	}).Err()
}

func (s *RedisGeoStore) Remove(ctx context.Context, key string, docId index.DocId) error {
	return s.rdb.ZRem(ctx, key, member(docId)).Err()
}

func (s *RedisGeoStore) Search(ctx context.Context, key string, f *GeoFilter) ([]index.DocId, error) {
	members, err := s.rdb.GeoSearch(ctx, key, &redis.GeoSearchQuery{
		Longitude:  f.Lon,
		Latitude:   f.Lat,
		Radius:     f.Radius,
		RadiusUnit: f.Unit,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	ids := make([]index.DocId, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			log.Warningf("skipping foreign member %q of %v", m, key)
			continue
		}
		ids = append(ids, index.DocId(id))
	}
	slices.Sort(ids)
	return ids, nil
}

// Deletes the set under key.
func (s *RedisGeoStore) Drop(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *RedisGeoStore) Close() error {
	return s.rdb.Close()
}
