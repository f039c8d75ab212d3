package mapbox

import (
	"context"
	"strings"
	"sync"

	"technician-route-service/internal/domain"
)

// MockDirections returns a straight-line route through the waypoints with
// fixed per-leg durations. Err, when set, is returned instead.
// Gate, when set, blocks each call until a value is received or ctx ends.
type MockDirections struct {
	mu sync.Mutex

	LegSeconds []float64
	LegMeters  float64
	Err        error
	Gate       chan struct{}

	calls [][]domain.Coordinates
}

func NewMockDirections(legSeconds ...float64) *MockDirections {
	return &MockDirections{LegSeconds: legSeconds, LegMeters: 1000}
}

func (m *MockDirections) Route(ctx context.Context, waypoints []domain.Coordinates) (*domain.Route, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]domain.Coordinates(nil), waypoints...))
	gate := m.Gate
	err := m.Err
	legSeconds := append([]float64(nil), m.LegSeconds...)
	legMeters := m.LegMeters
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if len(waypoints) < 2 {
		return nil, nil
	}

	route := &domain.Route{Geometry: append([]domain.Coordinates(nil), waypoints...)}
	for i := 0; i < len(waypoints)-1; i++ {
		var secs float64
		if i < len(legSeconds) {
			secs = legSeconds[i]
		}
		route.Legs = append(route.Legs, domain.Leg{DistanceMeters: legMeters, DurationSeconds: secs})
		route.DistanceMeters += legMeters
		route.DurationSeconds += secs
	}

	return route, nil
}

func (m *MockDirections) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Calls returns the waypoint lists received so far.
func (m *MockDirections) Calls() [][]domain.Coordinates {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]domain.Coordinates(nil), m.calls...)
}

// MockGeocoder resolves addresses from a fixed table keyed by lower-cased query.
type MockGeocoder struct {
	mu sync.Mutex

	results map[string]domain.GeocodeResult
	Err     error
	queries []string
}

func NewMockGeocoder(results map[string]domain.GeocodeResult) *MockGeocoder {
	m := &MockGeocoder{results: make(map[string]domain.GeocodeResult, len(results))}
	for k, v := range results {
		m.results[strings.ToLower(k)] = v
	}
	return m
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*domain.GeocodeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, address)
	if m.Err != nil {
		return nil, m.Err
	}

	r, ok := m.results[strings.ToLower(strings.TrimSpace(address))]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// Queries returns the addresses looked up so far.
func (m *MockGeocoder) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
