package ports

import (
	"context"
	"technician-route-service/internal/domain"
)

// Contract for resolving free-text addresses to coordinates.
type Geocoder interface {
	// Return the best match for the address, or nil when nothing matches.
	Geocode(ctx context.Context, address string) (*domain.GeocodeResult, error)
}

// Port: a key/value store for geocode results keyed by normalized query text.
type GeocodeCache interface {
	Get(ctx context.Context, key string) (*domain.GeocodeResult, error)
	Put(ctx context.Context, key string, result domain.GeocodeResult) error
}
