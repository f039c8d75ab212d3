package ports

import (
	"context"
	"technician-route-service/internal/domain"
)

// Port: a boundary for retrieving the seeded stop lists per route name.
type StopRepository interface {
	// Retrieve route names in display order.
	ListRoutes(ctx context.Context) ([]string, error)
	// Retrieve the stops of one route in their scheduled order.
	ListStops(ctx context.Context, route string) ([]domain.Stop, error)
}
