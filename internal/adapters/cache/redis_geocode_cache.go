package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "geocode:"

type redisEntry struct {
	Address string  `json:"address"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
}

// RedisGeocodeCache stores geocode results as JSON strings with a TTL.
type RedisGeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{client: client, ttl: ttl}
}

func (r *RedisGeocodeCache) Get(ctx context.Context, key string) (_ *domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "geocode.cache.redis.Get")(&err)

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}

	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: redis get: %w", err)
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("get geocode cache: decode %q: %w", key, err)
	}

	return &domain.GeocodeResult{
		Address:     e.Address,
		Coordinates: domain.Coordinates{Lon: e.Lon, Lat: e.Lat},
	}, nil
}

func (r *RedisGeocodeCache) Put(ctx context.Context, key string, result domain.GeocodeResult) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("insert geocode cache: empty query key")
	}

	raw, err := json.Marshal(redisEntry{
		Address: result.Address,
		Lon:     result.Coordinates.Lon,
		Lat:     result.Coordinates.Lat,
	})
	if err != nil {
		return fmt.Errorf("insert geocode cache: encode: %w", err)
	}

	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("insert geocode cache: redis set %q: %w", key, err)
	}

	return nil
}
