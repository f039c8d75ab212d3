package cache

import (
	"context"
	"strings"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/ports"

	log "github.com/sirupsen/logrus"
)

type CacheObserver interface {
	CacheLookup(result string)
}

// CachedGeocoder consults a GeocodeCache before the wrapped geocoder.
// Cache failures are logged and never fail the lookup. Misses from the
// provider are not cached.
type CachedGeocoder struct {
	inner    ports.Geocoder
	cache    ports.GeocodeCache
	observer CacheObserver
}

func NewCachedGeocoder(inner ports.Geocoder, cache ports.GeocodeCache, observer CacheObserver) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: cache, observer: observer}
}

// NormalizeQuery collapses whitespace and lower-cases the query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*domain.GeocodeResult, error) {
	key := NormalizeQuery(address)
	if key == "" {
		return c.inner.Geocode(ctx, address)
	}

	hit, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.observe("error")
		log.WithError(err).WithField("query", key).Warn("geocode cache read failed")
	case hit != nil:
		c.observe("hit")
		return hit, nil
	default:
		c.observe("miss")
	}

	res, err := c.inner.Geocode(ctx, address)
	if err != nil || res == nil {
		return res, err
	}

	if err := c.cache.Put(ctx, key, *res); err != nil {
		log.WithError(err).WithField("query", key).Warn("geocode cache write failed")
	}

	return res, nil
}

func (c *CachedGeocoder) observe(result string) {
	if c.observer != nil {
		c.observer.CacheLookup(result)
	}
}
