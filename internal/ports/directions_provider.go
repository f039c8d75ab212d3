package ports

import (
	"context"
	"technician-route-service/internal/domain"
)

// Contract for computing a driving route over ordered waypoints.
type DirectionsProvider interface {
	// Return the best route through the waypoints in order, or nil when the
	// provider finds none. Fewer than two waypoints yields nil.
	Route(ctx context.Context, waypoints []domain.Coordinates) (*domain.Route, error)
}
