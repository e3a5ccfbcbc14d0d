package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/handcar/handcar-backend/pkg/geo"
	"github.com/handcar/handcar-backend/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GeocodeKey(digest string) string
}

// RedisStore shares cached coordinates across api replicas under
// handcar:geocode:<sha256(normalised address)>. Redis expires entries after ttl;
// eviction beyond that follows the server's maxmemory policy.
type RedisStore struct {
	kv  redisKV
	ttl time.Duration
}

type cachedPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewRedisStore(kv redisKV, ttl time.Duration) (*RedisStore, error) {
	if kv == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{kv: kv, ttl: ttl}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (geo.Point, bool, error) {
	raw, err := s.kv.Get(ctx, s.kv.GeocodeKey(digest(key)))
	if err != nil {
		if redis.IsMiss(err) {
			return geo.Point{}, false, nil
		}
		return geo.Point{}, false, fmt.Errorf("read geocode cache: %w", err)
	}
	var cached cachedPoint
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		// treat a corrupt entry as a miss; the next Set overwrites it
		return geo.Point{}, false, nil
	}
	return geo.NewPoint(cached.Lat, cached.Lon), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, point geo.Point) error {
	if !point.Valid() {
		return errors.New("cannot cache a point without coordinates")
	}
	raw, err := json.Marshal(cachedPoint{Lat: *point.Lat, Lon: *point.Lon})
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.kv.GeocodeKey(digest(key)), string(raw), s.ttl); err != nil {
		return fmt.Errorf("write geocode cache: %w", err)
	}
	return nil
}
